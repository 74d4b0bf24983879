// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/dpiprobe/eventlog"
	"github.com/rbmk-project/dpiprobe/wire"
	"golang.org/x/sync/errgroup"
)

// ErrBind indicates that a listener could not be bound.
var ErrBind = errors.New("fleet: bind failed")

const (
	// DefaultReadTimeout is the default per-exchange read timeout.
	DefaultReadTimeout = 5 * time.Second

	// DefaultMaxChunk is the default maximum number of bytes read at once.
	DefaultMaxChunk = 4096

	// maxMessageSize is the maximum size of an error event message.
	maxMessageSize = 64
)

// Endpoint is a bound listener.
type Endpoint struct {
	// Config is the listener configuration.
	Config ListenerConfig

	// Addr is the bound local address.
	Addr netip.AddrPort
}

// Key returns the [eventlog.Key] the listener events are accounted under.
func (ep *Endpoint) Key() eventlog.Key {
	return eventlog.Key{Transport: ep.Config.Transport, Port: ep.Addr.Port(), Label: ep.Config.Label}
}

// Server runs the configured listeners.
//
// Construct using [NewServer]. Call [*Server.Start] at most once and
// always call [*Server.Close] once done.
type Server struct {
	// Address is the local address to bind (e.g., "0.0.0.0").
	//
	// Set by [NewServer] to "0.0.0.0".
	Address string

	// AnswerAddr is the IPv4 address in synthesized DNS answers.
	//
	// Set by [NewServer] to [wire.DefaultAnswerAddr].
	AnswerAddr netip.Addr

	// Listeners contains the listeners to bind.
	//
	// Set by [NewServer] to [DefaultListeners].
	Listeners []ListenerConfig

	// ListenFunc is the OPTIONAL function to create TCP listeners. If nil,
	// we use a [net.ListenConfig] setting SO_REUSEADDR where supported.
	ListenFunc func(ctx context.Context, network, address string) (net.Listener, error)

	// ListenPacketFunc is like ListenFunc but for UDP sockets.
	ListenPacketFunc func(ctx context.Context, network, address string) (net.PacketConn, error)

	// Log is the event log where we record events.
	//
	// Set by [NewServer] to a new empty [*eventlog.Log].
	Log *eventlog.Log

	// Logger is the OPTIONAL [*slog.Logger] to use.
	Logger *slog.Logger

	// MaxChunk is the maximum number of bytes read at once.
	//
	// Set by [NewServer] to [DefaultMaxChunk].
	MaxChunk int

	// ReadTimeout is the maximum time to wait for a peer to send.
	//
	// Set by [NewServer] to [DefaultReadTimeout].
	ReadTimeout time.Duration

	// TimeNow is the OPTIONAL function returning the event time.
	TimeNow func() time.Time

	// handlers tracks the TCP connection handlers.
	handlers sync.WaitGroup

	// loops tracks the accept and receive loops.
	loops errgroup.Group

	// sockets contains the bound sockets.
	sockets socketPool
}

// NewServer constructs a new [*Server] with default settings.
func NewServer() *Server {
	return &Server{
		Address:     "0.0.0.0",
		AnswerAddr:  wire.DefaultAnswerAddr,
		Listeners:   DefaultListeners(),
		Log:         eventlog.New(),
		MaxChunk:    DefaultMaxChunk,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Start binds the listeners and starts serving them in background.
//
// Binding failures are not fatal. We return the endpoints we could bind
// along with the join of the binding errors, each wrapping [ErrBind].
// When ctx is done, we close all the sockets like [*Server.Close] does
// but without waiting for the handlers to finish.
func (s *Server) Start(ctx context.Context) ([]*Endpoint, error) {
	var (
		endpoints []*Endpoint
		errv      []error
	)
	for _, cfg := range s.Listeners {
		ep, err := s.bind(ctx, cfg)
		if err != nil {
			s.logAttrs(ctx, slog.LevelWarn, "bindFailed",
				slog.String("label", cfg.Label),
				slog.String("protocol", cfg.Transport.Network()),
				slog.Int("port", int(cfg.Port)),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
			errv = append(errv, fmt.Errorf("%w: %s %s:%d: %w", ErrBind,
				cfg.Label, cfg.Transport, cfg.Port, err))
			continue
		}
		s.logAttrs(ctx, slog.LevelInfo, "listenerStarted",
			slog.String("label", cfg.Label),
			slog.String("protocol", cfg.Transport.Network()),
			slog.String("localAddr", ep.Addr.String()),
			slog.String("mode", string(cfg.Mode)),
		)
		endpoints = append(endpoints, ep)
	}
	context.AfterFunc(ctx, func() { s.sockets.close() })
	return endpoints, errors.Join(errv...)
}

// Close closes all the sockets and waits for the loops and the
// connection handlers to terminate. Closing twice is harmless.
func (s *Server) Close() error {
	err := s.sockets.close()
	s.loops.Wait()
	s.handlers.Wait()
	return err
}

// bind creates the socket for the given listener and starts its loop.
func (s *Server) bind(ctx context.Context, cfg ListenerConfig) (*Endpoint, error) {
	address := net.JoinHostPort(s.Address, strconv.Itoa(int(cfg.Port)))
	switch cfg.Transport {
	case wire.TCP:
		listener, err := s.listen(ctx, address)
		if err != nil {
			return nil, err
		}
		s.sockets.add(listener)
		ep := &Endpoint{Config: cfg, Addr: addrToAddrPort(listener.Addr())}
		s.loops.Go(func() error {
			s.acceptLoop(ctx, ep, listener)
			return nil
		})
		return ep, nil

	case wire.UDP:
		pconn, err := s.listenPacket(ctx, address)
		if err != nil {
			return nil, err
		}
		s.sockets.add(pconn)
		ep := &Endpoint{Config: cfg, Addr: addrToAddrPort(pconn.LocalAddr())}
		s.loops.Go(func() error {
			s.recvLoop(ctx, ep, pconn)
			return nil
		})
		return ep, nil

	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

// listen creates a TCP listener with SO_REUSEADDR set.
func (s *Server) listen(ctx context.Context, address string) (net.Listener, error) {
	if s.ListenFunc != nil {
		return s.ListenFunc(ctx, "tcp", address)
	}
	lc := &net.ListenConfig{Control: controlReuseAddr}
	return lc.Listen(ctx, "tcp", address)
}

// listenPacket creates a UDP socket. SO_REUSEADDR is not set, otherwise
// a second fleet could silently share a busy UDP port.
func (s *Server) listenPacket(ctx context.Context, address string) (net.PacketConn, error) {
	if s.ListenPacketFunc != nil {
		return s.ListenPacketFunc(ctx, "udp", address)
	}
	lc := &net.ListenConfig{}
	return lc.ListenPacket(ctx, "udp", address)
}

// acceptBackoff is the pause after a non-fatal accept or receive error.
const acceptBackoff = 10 * time.Millisecond

// acceptLoop accepts connections until the listener is closed.
func (s *Server) acceptLoop(ctx context.Context, ep *Endpoint, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			s.logAttrs(ctx, slog.LevelWarn, "acceptFailed",
				slog.String("localAddr", ep.Addr.String()),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
			time.Sleep(acceptBackoff)
			continue
		}
		s.handlers.Add(1)
		go s.serveConn(ctx, ep, conn)
	}
}

// recvLoop serves datagrams until the socket is closed.
func (s *Server) recvLoop(ctx context.Context, ep *Endpoint, pconn net.PacketConn) {
	buffer := make([]byte, s.maxChunk())
	for {
		count, addr, err := pconn.ReadFrom(buffer)
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			s.logAttrs(ctx, slog.LevelWarn, "recvFailed",
				slog.String("localAddr", ep.Addr.String()),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
			time.Sleep(acceptBackoff)
			continue
		}
		s.serveDatagram(ctx, ep, pconn, addr, buffer[:count])
	}
}

// record appends an event to the log and emits a structured log entry.
func (s *Server) record(ctx context.Context, ep *Endpoint,
	client netip.AddrPort, status eventlog.Status, payload []byte, err error) {
	ev := eventlog.Event{
		Time:          s.timeNow(),
		Port:          ep.Addr.Port(),
		Transport:     ep.Config.Transport,
		Label:         ep.Config.Label,
		ClientAddr:    client,
		PayloadLen:    len(payload),
		PayloadPrefix: payload,
		Status:        status,
	}
	level := slog.LevelInfo
	if err != nil {
		ev.Message = truncateMessage(err.Error())
		level = slog.LevelWarn
	}
	s.Log.Append(ev)
	s.logAttrs(ctx, level, "listenerEvent",
		slog.String("protocol", ev.Protocol()),
		slog.Int("port", int(ev.Port)),
		slog.String("remoteAddr", client.String()),
		slog.Int("payloadLen", ev.PayloadLen),
		slog.String("status", ev.Status.String()),
		slog.String("errClass", errclass.New(err)),
	)
}

// truncateMessage bounds the size of an error event message.
func truncateMessage(msg string) string {
	if len(msg) > maxMessageSize {
		return msg[:maxMessageSize]
	}
	return msg
}

// logAttrs emits a structured log entry if we have a logger.
func (s *Server) logAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if s.Logger != nil {
		s.Logger.LogAttrs(ctx, level, msg, attrs...)
	}
}

func (s *Server) maxChunk() int {
	if s.MaxChunk > 0 {
		return s.MaxChunk
	}
	return DefaultMaxChunk
}

func (s *Server) readTimeout() time.Duration {
	if s.ReadTimeout > 0 {
		return s.ReadTimeout
	}
	return DefaultReadTimeout
}

func (s *Server) timeNow() time.Time {
	if s.TimeNow != nil {
		return s.TimeNow()
	}
	return time.Now()
}
