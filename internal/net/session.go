package net

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultMaxLineLength = 1024

// Options sizes a session's queues and deadlines.
type Options struct {
	InQueueSize   int
	OutQueueSize  int
	ReadTimeout   time.Duration // 0 for none
	WriteTimeout  time.Duration
	MaxLineLength int
}

func (o *Options) applyDefaults() {
	if o.InQueueSize <= 0 {
		o.InQueueSize = 64
	}
	if o.OutQueueSize <= 0 {
		o.OutQueueSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
}

// Session is one operator terminal. Network I/O runs in dedicated
// goroutines; the exported fields other than the queues belong to the game
// loop.
type Session struct {
	ID   uint64
	conn net.Conn
	opts Options

	InQueue  chan string // game loop reads lines from here
	OutQueue chan string // writer goroutine reads from here

	IP       string
	Authed   bool
	Attempts int // failed passwords

	outBuf []string // game loop only

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, opts Options, log *zap.Logger) *Session {
	opts.applyDefaults()
	return &Session{
		ID:       id,
		conn:     conn,
		opts:     opts,
		InQueue:  make(chan string, opts.InQueueSize),
		OutQueue: make(chan string, opts.OutQueueSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a line. Nothing reaches the socket until FlushOutput.
func (s *Session) Send(line string) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, line)
}

// FlushOutput hands buffered lines to the writer. A client that cannot keep
// up with its queue is disconnected.
func (s *Session) FlushOutput() {
	for _, line := range s.outBuf {
		select {
		case s.OutQueue <- line:
		default:
			s.log.Warn("output queue full, dropping slow terminal")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop splits the stream into lines and pushes them onto InQueue.
// Blank lines are skipped.
func (s *Session) readLoop() {
	defer s.Close()

	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 256), s.opts.MaxLineLength)
	for {
		if s.opts.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil && !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case s.InQueue <- line:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes queued lines, flushing once the queue runs dry.
func (s *Session) writeLoop() {
	defer s.Close()

	w := bufio.NewWriter(s.conn)
	for {
		select {
		case line := <-s.OutQueue:
			if !s.writeLine(w, line) {
				return
			}
			for len(s.OutQueue) > 0 {
				if !s.writeLine(w, <-s.OutQueue) {
					return
				}
			}
			s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := w.Flush(); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLine(w *bufio.Writer, line string) bool {
	s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if _, err := w.WriteString(line + "\r\n"); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
