package rfid

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/model"
)

const readTimeout = 5 * time.Second

// Recorder accepts laps for participant ids.
type Recorder interface {
	RecordLap(id int) (model.LapEvent, bool)
}

// Listener accepts reader connections, one payload per connection, and turns
// tag reads into laps. Reads of the same tag closer than MinLapGap to its
// last accepted lap are dropped.
type Listener struct {
	addr      string
	minLapGap time.Duration
	location  *time.Location
	recorder  Recorder

	mu       sync.Mutex
	lastSeen map[int]time.Time
}

func NewListener(addr string, minLapGap time.Duration, recorder Recorder) *Listener {
	return &Listener{
		addr:      addr,
		minLapGap: minLapGap,
		location:  time.Local,
		recorder:  recorder,
		lastSeen:  make(map[int]time.Time),
	}
}

// Listen listens on the configured address until ctx is done.
func (l *Listener) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", l.addr)
	}
	log.Info().Str("address", l.addr).Msg("rfid listener started")
	return l.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Err(err).Msg("tcp accept error")
			continue
		}
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	body, err := io.ReadAll(conn)
	if err != nil {
		log.Err(err).Str("remote", conn.RemoteAddr().String()).Msg("failed to read rfid payload")
		return
	}
	reads, err := Decode(body, l.location)
	if err != nil {
		log.Err(err).Str("remote", conn.RemoteAddr().String()).Msg("decode error")
		return
	}
	for _, r := range reads {
		l.Process(r)
	}
}

// Process records a lap for r unless it is a duplicate read. It reports
// whether a lap was recorded.
func (l *Listener) Process(r Read) bool {
	id, err := r.ParticipantID()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring read")
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastSeen[id]; ok && r.At.Sub(last) < l.minLapGap {
		log.Debug().Int("participant", id).Msg("duplicate read dropped")
		return false
	}
	if _, ok := l.recorder.RecordLap(id); !ok {
		log.Debug().Int("participant", id).Msg("race not started, read dropped")
		return false
	}
	l.lastSeen[id] = r.At
	return true
}
