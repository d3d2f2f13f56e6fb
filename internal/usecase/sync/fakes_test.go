package sync

import (
	"context"
	"fmt"
	"time"

	"feedrelay/internal/domain/entity"
)

// fakeFeeds is an in-memory repository.FeedRepository stub.
type fakeFeeds struct {
	byID      map[int64]*entity.Feed
	unsynced  []*entity.Feed
	synced    []int64
	errored   []int64
	deleted   []int64
}

func newFakeFeeds() *fakeFeeds {
	return &fakeFeeds{byID: make(map[int64]*entity.Feed)}
}

func (f *fakeFeeds) FindByID(ctx context.Context, id int64) (*entity.Feed, error) {
	return f.byID[id], nil
}
func (f *fakeFeeds) FindByLink(ctx context.Context, link string) (*entity.Feed, error) {
	for _, feed := range f.byID {
		if feed.Link == link {
			return feed, nil
		}
	}
	return nil, nil
}
func (f *fakeFeeds) FindUnsynced(ctx context.Context, now time.Time, page, size int) ([]*entity.Feed, error) {
	if page > 0 {
		return nil, nil
	}
	return f.unsynced, nil
}
func (f *fakeFeeds) LoadIDs(ctx context.Context, page, size int) ([]int64, error) { return nil, nil }
func (f *fakeFeeds) Create(ctx context.Context, link string, feedType entity.FeedType) (*entity.Feed, error) {
	return nil, fmt.Errorf("not implemented")
}
func (f *fakeFeeds) SetSyncedAt(ctx context.Context, id int64, now time.Time, title, description string) error {
	f.synced = append(f.synced, id)
	if feed, ok := f.byID[id]; ok {
		feed.SyncedAt = &now
		feed.Title = title
		feed.Description = description
		feed.Error = ""
	}
	return nil
}
func (f *fakeFeeds) SetError(ctx context.Context, id int64, msg string) error {
	f.errored = append(f.errored, id)
	if feed, ok := f.byID[id]; ok {
		feed.Error = msg
	}
	return nil
}
func (f *fakeFeeds) SetContentFields(ctx context.Context, id int64, fields []entity.ContentField) error {
	return nil
}
func (f *fakeFeeds) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}
func (f *fakeFeeds) DeleteOrphans(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeFeeds) CountWithSubscriptions(ctx context.Context) (int64, error) { return 0, nil }

// fakeItems is an in-memory repository.FeedItemRepository stub.
type fakeItems struct {
	latest  map[int64]*entity.FeedItem
	created []*entity.FeedItem
}

func newFakeItems() *fakeItems {
	return &fakeItems{latest: make(map[int64]*entity.FeedItem)}
}

func (it *fakeItems) CreateMany(ctx context.Context, feedID int64, items []*entity.FeedItem) ([]*entity.FeedItem, error) {
	out := make([]*entity.FeedItem, 0, len(items))
	for i, item := range items {
		item.ID = int64(len(it.created) + i + 1)
		item.CreatedAt = time.Now()
		out = append(out, item)
	}
	it.created = append(it.created, out...)
	if len(out) > 0 {
		it.latest[feedID] = out[0]
	}
	return out, nil
}
func (it *fakeItems) GetLatest(ctx context.Context, feedID int64) (*entity.FeedItem, error) {
	return it.latest[feedID], nil
}
func (it *fakeItems) FindUndelivered(ctx context.Context, subscription *entity.Subscription, limit int) ([]*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) CountUndelivered(ctx context.Context, subscription *entity.Subscription) (int64, error) {
	return 0, nil
}
func (it *fakeItems) DeleteOld(ctx context.Context, feedID int64, keepN int) (int64, error) {
	return 0, nil
}

// fakeChats is an in-memory repository.ChatRepository stub.
type fakeChats struct {
	byFeed map[int64][]*entity.Chat
}

func (c *fakeChats) UpsertChat(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	return chat, nil
}
func (c *fakeChats) FindChat(ctx context.Context, id int64) (*entity.Chat, error) { return nil, nil }
func (c *fakeChats) RemoveChat(ctx context.Context, id int64) error               { return nil }
func (c *fakeChats) FindChatsByFeed(ctx context.Context, feedID int64) ([]*entity.Chat, error) {
	return c.byFeed[feedID], nil
}
func (c *fakeChats) SetFilterWords(ctx context.Context, chatID int64, words []string) error {
	return nil
}
func (c *fakeChats) SetTemplate(ctx context.Context, chatID int64, template string) error {
	return nil
}
func (c *fakeChats) SetUTCOffsetMinutes(ctx context.Context, chatID int64, offset int) error {
	return nil
}
func (c *fakeChats) SetPreviewEnabled(ctx context.Context, chatID int64, enabled bool) error {
	return nil
}
func (c *fakeChats) LoadIDs(ctx context.Context, page, size int) ([]int64, error) { return nil, nil }
func (c *fakeChats) LoadDirtyIDs(ctx context.Context, page, size int) ([]int64, error) {
	return nil, nil
}

// fakeSubs is an in-memory repository.SubscriptionRepository stub.
type fakeSubs struct {
	markedFeedIDs []int64
	markedSince   []time.Time
}

func (s *fakeSubs) Create(ctx context.Context, chatID, feedID int64) (*entity.Subscription, error) {
	return nil, nil
}
func (s *fakeSubs) Find(ctx context.Context, id int64) (*entity.Subscription, error) { return nil, nil }
func (s *fakeSubs) FindByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error) {
	return nil, nil
}
func (s *fakeSubs) FindByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error) {
	return nil, nil
}
func (s *fakeSubs) FindUnreadByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error) {
	return nil, nil
}
func (s *fakeSubs) CountByChat(ctx context.Context, chatID int64) (int, error) { return 0, nil }
func (s *fakeSubs) SetLastDeliveredAt(ctx context.Context, id int64, at time.Time) error {
	return nil
}
func (s *fakeSubs) MarkDelivered(ctx context.Context, id int64) error { return nil }
func (s *fakeSubs) MarkHasUpdates(ctx context.Context, feedID int64, since time.Time) error {
	s.markedFeedIDs = append(s.markedFeedIDs, feedID)
	s.markedSince = append(s.markedSince, since)
	return nil
}
func (s *fakeSubs) SetFilterWords(ctx context.Context, id int64, words []string) error { return nil }
func (s *fakeSubs) SetTemplate(ctx context.Context, id int64, template string) error   { return nil }
func (s *fakeSubs) Remove(ctx context.Context, id int64) error                        { return nil }

// fakeTasks is an in-memory repository.TaskRepository stub, enough for
// queue.New to wrap in tests that only enqueue.
type fakeTasks struct {
	enqueued []enqueuedTask
}

type enqueuedTask struct {
	TaskType entity.TaskType
	Payload  []byte
}

func (t *fakeTasks) Enqueue(ctx context.Context, taskType entity.TaskType, uniqHash string, payload []byte, runAt time.Time) (*entity.Task, error) {
	t.enqueued = append(t.enqueued, enqueuedTask{TaskType: taskType, Payload: payload})
	return &entity.Task{TaskType: taskType, Payload: payload}, nil
}
func (t *fakeTasks) SchedulePeriodic(ctx context.Context, taskType entity.TaskType, uniqHash, cronExpr string, payload []byte) error {
	return nil
}
func (t *fakeTasks) FetchNext(ctx context.Context, taskType entity.TaskType, visibilityTimeout time.Duration, now time.Time) (*entity.Task, error) {
	return nil, nil
}
func (t *fakeTasks) Finish(ctx context.Context, taskID int64, outcome entity.Outcome, backoff time.Duration) error {
	return nil
}
func (t *fakeTasks) ReclaimExpired(ctx context.Context, visibilityTimeout time.Duration, now time.Time) (int64, error) {
	return 0, nil
}
func (t *fakeTasks) Depth(ctx context.Context, taskType entity.TaskType, now time.Time) (int64, error) {
	return 0, nil
}
