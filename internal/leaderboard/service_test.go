package leaderboard_test

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"hackbutton/internal/config"
	"hackbutton/internal/leaderboard"
	"hackbutton/pkg/models"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore is an in-memory Database implementation for tests. It mirrors
// the real stores' ordering and upsert-if-better semantics.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	clock   time.Time
	entries []models.LeaderboardEntry
	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeStore) FindBest(nickname string, hardMode bool) (*models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("store down")
	}
	for i := range f.entries {
		if f.entries[i].Nickname == nickname && f.entries[i].IsHardMode == hardMode {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteEntry(nickname string, hardMode bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("store down")
	}
	f.deleteLocked(nickname, hardMode)
	return nil
}

func (f *fakeStore) deleteLocked(nickname string, hardMode bool) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Nickname != nickname || e.IsHardMode != hardMode {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

func (f *fakeStore) Insert(entry *models.LeaderboardEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("store down")
	}
	f.insertLocked(entry)
	return nil
}

func (f *fakeStore) insertLocked(entry *models.LeaderboardEntry) {
	f.nextID++
	entry.ID = f.nextID
	entry.CreatedAt = f.clock
	f.clock = f.clock.Add(time.Second)
	f.entries = append(f.entries, *entry)
}

func (f *fakeStore) TopScores(hardMode bool, limit int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("store down")
	}

	var matched []models.LeaderboardEntry
	for _, e := range f.entries {
		if e.IsHardMode == hardMode {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) SubmitIfBetter(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("store down")
	}

	for _, e := range f.entries {
		if e.Nickname == entry.Nickname && e.IsHardMode == entry.IsHardMode {
			if entry.Score <= e.Score {
				return nil, &models.ScoreNotImprovedError{Existing: e.Score}
			}
			f.deleteLocked(entry.Nickname, entry.IsHardMode)
			break
		}
	}

	stored := &models.LeaderboardEntry{
		Nickname:   entry.Nickname,
		Score:      entry.Score,
		IsHardMode: entry.IsHardMode,
	}
	f.insertLocked(stored)
	return stored, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count(nickname string, hardMode bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Nickname == nickname && e.IsHardMode == hardMode {
			n++
		}
	}
	return n
}

// fakeNotifier records broadcasts.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []models.LeaderboardUpdate
}

func (f *fakeNotifier) NotifyLeaderboard(hardMode bool, entries []models.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, models.LeaderboardUpdate{
		Mode:    models.ModeName(hardMode),
		Entries: entries,
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Game:        config.GameConfig{NormalSessionSeconds: 15, HardSessionSeconds: 60},
		Leaderboard: config.LeaderboardConfig{TopSize: 10, CacheTTL: 300},
	}
}

func intPtr(n int) *int { return &n }

func TestSubmitValidation(t *testing.T) {
	Convey("Given a leaderboard service", t, func() {
		store := newFakeStore()
		svc := leaderboard.NewService(store, nil, testConfig())

		Convey("When the nickname is empty", func() {
			_, err := svc.Submit("", intPtr(5), false)

			Convey("Then the submission is invalid input", func() {
				So(err, ShouldEqual, leaderboard.ErrNicknameRequired)
				So(leaderboard.IsInvalidInput(err), ShouldBeTrue)
			})
		})

		Convey("When the score is missing", func() {
			_, err := svc.Submit("neo", nil, false)

			Convey("Then the submission is invalid input", func() {
				So(err, ShouldEqual, leaderboard.ErrScoreRequired)
				So(leaderboard.IsInvalidInput(err), ShouldBeTrue)
			})
		})

		Convey("When the score is negative", func() {
			_, err := svc.Submit("neo", intPtr(-1), false)

			Convey("Then the submission is invalid input", func() {
				So(err, ShouldEqual, leaderboard.ErrScoreNegative)
				So(leaderboard.IsInvalidInput(err), ShouldBeTrue)
			})
		})

		Convey("And nothing was stored", func() {
			entries, err := svc.TopScores(false)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}

func TestSubmitUpsertIfBetter(t *testing.T) {
	Convey("Given a leaderboard service", t, func() {
		store := newFakeStore()
		svc := leaderboard.NewService(store, nil, testConfig())

		Convey("When a player submits for the first time", func() {
			entry, err := svc.Submit("neo", intPtr(5), false)

			Convey("Then exactly one entry is created with the submitted values", func() {
				So(err, ShouldBeNil)
				So(entry.Nickname, ShouldEqual, "neo")
				So(entry.Score, ShouldEqual, 5)
				So(entry.IsHardMode, ShouldBeFalse)
				So(entry.ID, ShouldNotEqual, 0)
				So(store.count("neo", false), ShouldEqual, 1)
			})

			Convey("And a lower score is rejected with the standing high score", func() {
				_, err := svc.Submit("neo", intPtr(3), false)

				var notImproved *models.ScoreNotImprovedError
				So(errors.As(err, &notImproved), ShouldBeTrue)
				So(notImproved.Existing, ShouldEqual, 5)
				So(notImproved.Error(), ShouldContainSubstring, "5")
				So(store.count("neo", false), ShouldEqual, 1)
			})

			Convey("And an equal score is rejected too", func() {
				_, err := svc.Submit("neo", intPtr(5), false)

				var notImproved *models.ScoreNotImprovedError
				So(errors.As(err, &notImproved), ShouldBeTrue)
				So(store.count("neo", false), ShouldEqual, 1)
			})

			Convey("And a higher score replaces the entry", func() {
				entry, err := svc.Submit("neo", intPtr(8), false)

				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 8)
				So(store.count("neo", false), ShouldEqual, 1)

				entries, err := svc.TopScores(false)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Nickname, ShouldEqual, "neo")
				So(entries[0].Score, ShouldEqual, 8)
			})
		})

		Convey("When the same nickname submits in both modes", func() {
			_, err := svc.Submit("trinity", intPtr(7), false)
			So(err, ShouldBeNil)
			_, err = svc.Submit("trinity", intPtr(2), true)
			So(err, ShouldBeNil)

			Convey("Then the boards stay independent", func() {
				normal, err := svc.TopScores(false)
				So(err, ShouldBeNil)
				So(len(normal), ShouldEqual, 1)
				So(normal[0].IsHardMode, ShouldBeFalse)

				hard, err := svc.TopScores(true)
				So(err, ShouldBeNil)
				So(len(hard), ShouldEqual, 1)
				So(hard[0].IsHardMode, ShouldBeTrue)
				So(hard[0].Score, ShouldEqual, 2)
			})
		})
	})
}

func TestTopScores(t *testing.T) {
	Convey("Given a board with more players than the top size", t, func() {
		store := newFakeStore()
		svc := leaderboard.NewService(store, nil, testConfig())

		for i := 0; i < 14; i++ {
			_, err := svc.Submit(fmt.Sprintf("player%02d", i), intPtr(i*3), false)
			So(err, ShouldBeNil)
		}

		Convey("When reading the top scores", func() {
			entries, err := svc.TopScores(false)

			Convey("Then at most ten entries come back, best first", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 10)
				for i := 1; i < len(entries); i++ {
					So(entries[i].Score, ShouldBeLessThanOrEqualTo, entries[i-1].Score)
				}
			})
		})
	})

	Convey("Given two players with equal scores", t, func() {
		store := newFakeStore()
		svc := leaderboard.NewService(store, nil, testConfig())

		_, err := svc.Submit("first", intPtr(9), true)
		So(err, ShouldBeNil)
		_, err = svc.Submit("second", intPtr(9), true)
		So(err, ShouldBeNil)

		Convey("Then the earlier entry ranks higher", func() {
			entries, err := svc.TopScores(true)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 2)
			So(entries[0].Nickname, ShouldEqual, "first")
			So(entries[1].Nickname, ShouldEqual, "second")
		})
	})

	Convey("Given an empty hard board", t, func() {
		store := newFakeStore()
		svc := leaderboard.NewService(store, nil, testConfig())

		Convey("Then reading it returns no entries", func() {
			entries, err := svc.TopScores(true)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}

func TestSubmitBroadcast(t *testing.T) {
	Convey("Given a service with a notifier attached", t, func() {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := leaderboard.NewService(store, nil, testConfig())
		svc.SetNotifier(notifier)

		Convey("When a submission is accepted", func() {
			_, err := svc.Submit("morpheus", intPtr(4), true)
			So(err, ShouldBeNil)

			Convey("Then the refreshed board is broadcast", func() {
				So(len(notifier.calls), ShouldEqual, 1)
				So(notifier.calls[0].Mode, ShouldEqual, "hard")
				So(len(notifier.calls[0].Entries), ShouldEqual, 1)
				So(notifier.calls[0].Entries[0].Nickname, ShouldEqual, "morpheus")
			})
		})

		Convey("When a submission is rejected", func() {
			_, err := svc.Submit("morpheus", intPtr(4), true)
			So(err, ShouldBeNil)
			_, err = svc.Submit("morpheus", intPtr(1), true)
			So(err, ShouldNotBeNil)

			Convey("Then no second broadcast happens", func() {
				So(len(notifier.calls), ShouldEqual, 1)
			})
		})
	})
}

func TestStorageFailure(t *testing.T) {
	Convey("Given a failing store", t, func() {
		store := newFakeStore()
		store.failAll = true
		svc := leaderboard.NewService(store, nil, testConfig())

		Convey("Then submissions surface the storage error", func() {
			_, err := svc.Submit("neo", intPtr(5), false)
			So(err, ShouldNotBeNil)
			So(leaderboard.IsInvalidInput(err), ShouldBeFalse)
		})

		Convey("Then reads surface the storage error", func() {
			_, err := svc.TopScores(false)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestModes(t *testing.T) {
	Convey("Given the default game configuration", t, func() {
		svc := leaderboard.NewService(newFakeStore(), nil, testConfig())

		Convey("Then both modes are described with their durations", func() {
			modes := svc.Modes()
			So(len(modes), ShouldEqual, 2)
			So(modes[0].Mode, ShouldEqual, "normal")
			So(modes[0].SessionSeconds, ShouldEqual, 15)
			So(modes[1].Mode, ShouldEqual, "hard")
			So(modes[1].SessionSeconds, ShouldEqual, 60)
		})
	})
}
