package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devraulu/rollcall/pkg/checkpoint"
	"github.com/devraulu/rollcall/pkg/votes"
)

type MockCrawler struct {
	mock.Mock
}

func (m *MockCrawler) CrawlAllSessions(ctx context.Context, minYear int, minDate time.Time) ([]votes.SessionResult, error) {
	args := m.Called(ctx, minYear, minDate)
	res, _ := args.Get(0).([]votes.SessionResult)
	return res, args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveVoteIndex(ctx context.Context, session votes.SessionRef, summaries []votes.VoteSummary) error {
	return m.Called(ctx, session, summaries).Error(0)
}

func (m *MockStorage) SaveVoteRecords(ctx context.Context, summary votes.VoteSummary, records []votes.VoteRecord) error {
	return m.Called(ctx, summary, records).Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) Sleep(context.Context, time.Duration) error { return nil }

var (
	today      = time.Date(2019, time.April, 2, 15, 4, 5, 0, time.UTC)
	lastUpdate = time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	session    = votes.SessionRef{Congress: 116, Session: 1, Year: 2019}
	summary    = votes.VoteSummary{Congress: 116, Session: 1, VoteNumber: 42}
	records    = []votes.VoteRecord{{LISMemberID: "S289"}}
)

func TestUpdateAdvancesCheckpoint(t *testing.T) {
	ctx := context.Background()
	c := new(MockCrawler)
	c.On("CrawlAllSessions", ctx, 2019, lastUpdate).Return([]votes.SessionResult{{
		Session: session,
		Votes: []votes.VoteResult{
			{Summary: summary, Records: records},
			{Summary: votes.VoteSummary{VoteNumber: 43}, Err: errors.New("empty")},
		},
	}}, nil)

	s := new(MockStorage)
	s.On("SaveVoteIndex", ctx, session, []votes.VoteSummary{summary, {VoteNumber: 43}}).Return(nil)
	s.On("SaveVoteRecords", ctx, summary, records).Return(nil)

	cp := checkpoint.Checkpoint{TrackedYears: []int{2018, 2019}, LastUpdate: lastUpdate, OutputPath: "data"}
	next, err := New(c, s, fixedClock{now: today}).Update(ctx, cp)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2019, time.April, 2, 0, 0, 0, 0, time.UTC), next.LastUpdate)
	assert.Equal(t, cp.TrackedYears, next.TrackedYears)
	assert.Equal(t, cp.OutputPath, next.OutputPath)
	assert.Equal(t, lastUpdate, cp.LastUpdate)
	c.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestUpdateFirstRunUsesTrackedYears(t *testing.T) {
	ctx := context.Background()
	c := new(MockCrawler)
	c.On("CrawlAllSessions", ctx, 2016, time.Time{}).Return([]votes.SessionResult{}, nil)

	next, err := New(c, new(MockStorage), fixedClock{now: today}).Update(ctx, checkpoint.Checkpoint{TrackedYears: []int{2017, 2016}})
	require.NoError(t, err)
	assert.Equal(t, 2019, next.LastUpdate.Year())
	c.AssertExpectations(t)
}

func TestUpdateCrawlFailureKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("vote index: parse")
	c := new(MockCrawler)
	c.On("CrawlAllSessions", ctx, 2019, lastUpdate).Return(nil, boom)
	s := new(MockStorage)

	cp := checkpoint.Checkpoint{LastUpdate: lastUpdate}
	next, err := New(c, s, fixedClock{now: today}).Update(ctx, cp)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, cp, next)
	s.AssertNotCalled(t, "SaveVoteIndex", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStorageFailureKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	c := new(MockCrawler)
	c.On("CrawlAllSessions", ctx, 2019, lastUpdate).Return([]votes.SessionResult{{
		Session: session,
		Votes:   []votes.VoteResult{{Summary: summary, Records: records}},
	}}, nil)

	diskFull := errors.New("disk full")
	s := new(MockStorage)
	s.On("SaveVoteIndex", ctx, session, mock.Anything).Return(nil)
	s.On("SaveVoteRecords", ctx, summary, records).Return(diskFull)

	cp := checkpoint.Checkpoint{LastUpdate: lastUpdate}
	next, err := New(c, s, fixedClock{now: today}).Update(ctx, cp)
	assert.True(t, errors.Is(err, diskFull))
	assert.Equal(t, cp, next)
}

func TestUpdateTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	todayDate := time.Date(2019, time.April, 2, 0, 0, 0, 0, time.UTC)

	c := new(MockCrawler)
	c.On("CrawlAllSessions", ctx, 2019, lastUpdate).Return([]votes.SessionResult{}, nil).Once()
	c.On("CrawlAllSessions", ctx, 2019, todayDate).Return([]votes.SessionResult{}, nil).Once()

	u := New(c, new(MockStorage), fixedClock{now: today})
	first, err := u.Update(ctx, checkpoint.Checkpoint{LastUpdate: lastUpdate})
	require.NoError(t, err)
	assert.Equal(t, todayDate, first.LastUpdate)

	second, err := u.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	c.AssertExpectations(t)
}
