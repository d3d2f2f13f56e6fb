package deliver

import (
	"context"
	"time"

	"feedrelay/internal/domain/entity"
)

type fakeFeeds struct {
	byID map[int64]*entity.Feed
}

func newFakeFeeds() *fakeFeeds { return &fakeFeeds{byID: make(map[int64]*entity.Feed)} }

func (f *fakeFeeds) FindByID(ctx context.Context, id int64) (*entity.Feed, error) {
	return f.byID[id], nil
}
func (f *fakeFeeds) FindByLink(ctx context.Context, link string) (*entity.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) FindUnsynced(ctx context.Context, now time.Time, page, size int) ([]*entity.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) LoadIDs(ctx context.Context, page, size int) ([]int64, error) { return nil, nil }
func (f *fakeFeeds) Create(ctx context.Context, link string, feedType entity.FeedType) (*entity.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) SetSyncedAt(ctx context.Context, id int64, now time.Time, title, description string) error {
	return nil
}
func (f *fakeFeeds) SetError(ctx context.Context, id int64, msg string) error { return nil }
func (f *fakeFeeds) SetContentFields(ctx context.Context, id int64, fields []entity.ContentField) error {
	return nil
}
func (f *fakeFeeds) Delete(ctx context.Context, id int64) error               { return nil }
func (f *fakeFeeds) DeleteOrphans(ctx context.Context) (int64, error)        { return 0, nil }
func (f *fakeFeeds) CountWithSubscriptions(ctx context.Context) (int64, error) { return 0, nil }

type fakeItems struct {
	undelivered map[int64][]*entity.FeedItem
	counts      map[int64]int64
	delivered   map[int64][]time.Time
}

func newFakeItems() *fakeItems {
	return &fakeItems{
		undelivered: make(map[int64][]*entity.FeedItem),
		counts:      make(map[int64]int64),
		delivered:   make(map[int64][]time.Time),
	}
}

func (it *fakeItems) CreateMany(ctx context.Context, feedID int64, items []*entity.FeedItem) ([]*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) GetLatest(ctx context.Context, feedID int64) (*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) FindUndelivered(ctx context.Context, subscription *entity.Subscription, limit int) ([]*entity.FeedItem, error) {
	items := it.undelivered[subscription.ID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
func (it *fakeItems) CountUndelivered(ctx context.Context, subscription *entity.Subscription) (int64, error) {
	return it.counts[subscription.ID], nil
}
func (it *fakeItems) DeleteOld(ctx context.Context, feedID int64, keepN int) (int64, error) {
	return 0, nil
}

type fakeChats struct {
	byID    map[int64]*entity.Chat
	removed []int64
	dirty   [][]int64
}

func (c *fakeChats) UpsertChat(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	return chat, nil
}
func (c *fakeChats) FindChat(ctx context.Context, id int64) (*entity.Chat, error) {
	return c.byID[id], nil
}
func (c *fakeChats) RemoveChat(ctx context.Context, id int64) error {
	c.removed = append(c.removed, id)
	return nil
}
func (c *fakeChats) FindChatsByFeed(ctx context.Context, feedID int64) ([]*entity.Chat, error) {
	return nil, nil
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
	if page < len(c.dirty) {
		return c.dirty[page], nil
	}
	return nil, nil
}

type fakeSubs struct {
	unread        map[int64][]*entity.Subscription
	delivered     []int64
	lastDelivered map[int64]time.Time
}

func newFakeSubs() *fakeSubs {
	return &fakeSubs{unread: make(map[int64][]*entity.Subscription), lastDelivered: make(map[int64]time.Time)}
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
	return s.unread[chatID], nil
}
func (s *fakeSubs) CountByChat(ctx context.Context, chatID int64) (int, error) { return 0, nil }
func (s *fakeSubs) SetLastDeliveredAt(ctx context.Context, id int64, at time.Time) error {
	s.lastDelivered[id] = at
	return nil
}
func (s *fakeSubs) MarkDelivered(ctx context.Context, id int64) error {
	s.delivered = append(s.delivered, id)
	return nil
}
func (s *fakeSubs) MarkHasUpdates(ctx context.Context, feedID int64, since time.Time) error {
	return nil
}
func (s *fakeSubs) SetFilterWords(ctx context.Context, id int64, words []string) error { return nil }
func (s *fakeSubs) SetTemplate(ctx context.Context, id int64, template string) error   { return nil }
func (s *fakeSubs) Remove(ctx context.Context, id int64) error                        { return nil }

type fakeTasks struct {
	enqueued []entity.TaskType
}

func (t *fakeTasks) Enqueue(ctx context.Context, taskType entity.TaskType, uniqHash string, payload []byte, runAt time.Time) (*entity.Task, error) {
	t.enqueued = append(t.enqueued, taskType)
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
