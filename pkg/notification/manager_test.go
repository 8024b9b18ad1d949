package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/storage"
)

type staticLister []storage.TelegramUser

func (l staticLister) ListSubscribers() ([]storage.TelegramUser, error) {
	return l, nil
}

type sent struct {
	chatIDs []int64
	subject string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingSender) send(ctx context.Context, chatIDs []int64, subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{chatIDs: chatIDs, subject: subject})
	return nil
}

func (r *recordingSender) waitFor(t *testing.T, n int) []sent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.sent) >= n {
			got := append([]sent(nil), r.sent...)
			r.mu.Unlock()
			return got
		}
		r.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications", n)
	return nil
}

func TestNotifiesStartAndLeaderChanges(t *testing.T) {
	laps := pubsub.NewPubSub[model.LapEvent]()
	started := pubsub.NewPubSub[model.RaceStarted]()
	rec := &recordingSender{}
	lister := staticLister{{ChatID: 1, Name: "a"}, {ChatID: 2, Name: "b"}}
	m := NewManagerWithSender(context.Background(), rec.send, lister, laps, started)

	// published before Start runs
	started.Publish(pubsub.PubSubRaceStartedTopic, model.RaceStarted{RaceName: "R1"})

	exit := make(chan bool)
	done := make(chan struct{})
	go func() {
		m.Start(exit)
		close(done)
	}()
	rec.waitFor(t, 1)
	laps.Publish(pubsub.PubSubLapsTopic, model.LapEvent{ParticipantID: 5, Lap: 1, LeaderID: 5, LeaderLaps: 1})
	rec.waitFor(t, 2)
	laps.Publish(pubsub.PubSubLapsTopic, model.LapEvent{ParticipantID: 6, Lap: 1, LeaderID: 5, LeaderLaps: 1})
	laps.Publish(pubsub.PubSubLapsTopic, model.LapEvent{ParticipantID: 6, Lap: 2, LeaderID: 6, LeaderLaps: 2})
	got := rec.waitFor(t, 3)

	exit <- true
	<-done

	want := []string{subjectRaceStarted, subjectNewLeader, subjectNewLeader}
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.subject != want[i] {
			t.Errorf("notification %d: expected %q, got %q", i, want[i], s.subject)
		}
		if len(s.chatIDs) != 2 || s.chatIDs[0] != 1 || s.chatIDs[1] != 2 {
			t.Errorf("notification %d: unexpected receivers %v", i, s.chatIDs)
		}
	}
}

func TestStartUnsubscribesOnExit(t *testing.T) {
	laps := pubsub.NewPubSub[model.LapEvent]()
	started := pubsub.NewPubSub[model.RaceStarted]()
	m := NewManagerWithSender(context.Background(), (&recordingSender{}).send, staticLister{}, laps, started)

	exit := make(chan bool)
	done := make(chan struct{})
	go func() {
		m.Start(exit)
		close(done)
	}()
	close(exit)
	<-done

	if _, ok := <-m.lapsChan; ok {
		t.Fatal("expected laps subscription closed")
	}
	if _, ok := <-m.startedChan; ok {
		t.Fatal("expected started subscription closed")
	}
}

func TestNoSubscribersSendsNothing(t *testing.T) {
	rec := &recordingSender{}
	m := NewManagerWithSender(context.Background(), rec.send, staticLister{}, nil, nil)
	m.handleNotification(subjectRaceStarted, "R1")
	if len(rec.sent) != 0 {
		t.Fatalf("expected nothing sent, got %+v", rec.sent)
	}
}
