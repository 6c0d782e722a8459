package notify

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/observe"
)

// Watcher posts a "now playing" notification whenever the current track
// changes. Each notification replaces the previous one so track skips do
// not pile up in the notification tray.
type Watcher struct {
	notifier Notifier
	log      *slog.Logger

	sub  *observe.Subscription[*media.Track]
	stop chan struct{}
	done chan struct{}

	stopOnce sync.Once
	lastID   uint32
}

// Watch subscribes to the current-track observable and starts posting
// notifications. Call Stop to detach.
func Watch(current *observe.Value[*media.Track], notifier Notifier, log *slog.Logger) *Watcher {
	w := &Watcher{
		notifier: notifier,
		log:      log,
		sub:      current.Subscribe(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Stop detaches the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.sub.Cancel()
		<-w.done
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case track := <-w.sub.C:
			if track == nil {
				continue
			}
			w.announce(*track)
		}
	}
}

func (w *Watcher) announce(track media.Track) {
	var bodyParts []string
	if track.Artist != "" {
		bodyParts = append(bodyParts, track.Artist)
	}
	if track.Album != "" {
		bodyParts = append(bodyParts, track.Album)
	}

	id, err := w.notifier.Notify(Notification{
		Title:      track.Title,
		Body:       strings.Join(bodyParts, " — "),
		Icon:       track.ArtworkPath,
		Timeout:    3000,
		ReplacesID: w.lastID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		w.log.Debug("failed to send track notification", "err", err)
		return
	}
	w.lastID = id
}
