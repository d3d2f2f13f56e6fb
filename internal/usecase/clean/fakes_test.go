package clean

import (
	"context"
	"time"

	"feedrelay/internal/domain/entity"
)

type fakeFeeds struct {
	ids              []int64
	orphansRemoved   int64
	deleteOrphansErr error
}

func (f *fakeFeeds) FindByID(ctx context.Context, id int64) (*entity.Feed, error) { return nil, nil }
func (f *fakeFeeds) FindByLink(ctx context.Context, link string) (*entity.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) FindUnsynced(ctx context.Context, now time.Time, page, size int) ([]*entity.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) LoadIDs(ctx context.Context, page, size int) ([]int64, error) {
	const pageSize = FeedsPerPage
	start := page * pageSize
	if start >= len(f.ids) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[start:end], nil
}
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
func (f *fakeFeeds) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeFeeds) DeleteOrphans(ctx context.Context) (int64, error) {
	return f.orphansRemoved, f.deleteOrphansErr
}
func (f *fakeFeeds) CountWithSubscriptions(ctx context.Context) (int64, error) { return 0, nil }

type fakeItems struct {
	deletedFeedIDs []int64
	removePerFeed  int64
}

func (it *fakeItems) CreateMany(ctx context.Context, feedID int64, items []*entity.FeedItem) ([]*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) GetLatest(ctx context.Context, feedID int64) (*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) FindUndelivered(ctx context.Context, subscription *entity.Subscription, limit int) ([]*entity.FeedItem, error) {
	return nil, nil
}
func (it *fakeItems) CountUndelivered(ctx context.Context, subscription *entity.Subscription) (int64, error) {
	return 0, nil
}
func (it *fakeItems) DeleteOld(ctx context.Context, feedID int64, keepN int) (int64, error) {
	it.deletedFeedIDs = append(it.deletedFeedIDs, feedID)
	return it.removePerFeed, nil
}

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
