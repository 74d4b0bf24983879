// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/miekg/dns"
	"github.com/rbmk-project/dpiprobe/eventlog"
	"github.com/rbmk-project/dpiprobe/wire"
)

// serveConn handles a single TCP connection and closes it.
func (s *Server) serveConn(ctx context.Context, ep *Endpoint, conn net.Conn) {
	defer s.handlers.Done()
	defer conn.Close()

	client := addrToAddrPort(conn.RemoteAddr())
	conn.SetDeadline(time.Now().Add(s.readTimeout()))

	buffer := make([]byte, s.maxChunk())
	count, err := conn.Read(buffer)
	switch {
	case count <= 0 && errors.Is(err, os.ErrDeadlineExceeded):
		s.record(ctx, ep, client, eventlog.StatusTimeout, nil, nil)
		return
	case count <= 0 && err != nil && !errors.Is(err, io.EOF):
		s.record(ctx, ep, client, eventlog.StatusError, nil, err)
		return
	}

	request := buffer[:count]
	s.record(ctx, ep, client, eventlog.StatusReceived, request, nil)
	if len(request) <= 0 {
		return
	}

	response, err := s.respondStream(ctx, ep, request, conn)
	if err != nil {
		s.record(ctx, ep, client, eventlog.StatusError, nil, err)
		return
	}
	if _, err := conn.Write(response); err != nil {
		s.record(ctx, ep, client, eventlog.StatusError, nil, err)
		return
	}
	s.record(ctx, ep, client, eventlog.StatusSentEcho, response, nil)
}

// respondStream builds the response for a TCP request. In DNS mode, the
// request may be split across reads, so we keep reading from conn until
// we have the whole length-prefixed message.
func (s *Server) respondStream(ctx context.Context, ep *Endpoint, request []byte, conn net.Conn) ([]byte, error) {
	if ep.Config.Mode != ModeDNS {
		return echoResponse(ep.Config.Label, request), nil
	}
	query, err := wire.ReadTCPLengthPrefixed(io.MultiReader(bytes.NewReader(request), conn))
	if err != nil {
		return nil, err
	}
	response, err := s.respondDNS(ctx, query)
	if err != nil {
		return nil, err
	}
	return wire.WrapTCPLengthPrefix(response)
}

// serveDatagram handles a single UDP datagram.
func (s *Server) serveDatagram(ctx context.Context,
	ep *Endpoint, pconn net.PacketConn, addr net.Addr, request []byte) {
	client := addrToAddrPort(addr)
	s.record(ctx, ep, client, eventlog.StatusReceived, request, nil)
	if len(request) <= 0 {
		return
	}

	var (
		response []byte
		err      error
	)
	switch ep.Config.Mode {
	case ModeDNS:
		response, err = s.respondDNS(ctx, request)
	default:
		response = echoResponse(ep.Config.Label, request)
	}
	if err != nil {
		s.record(ctx, ep, client, eventlog.StatusError, nil, err)
		return
	}

	pconn.SetWriteDeadline(time.Now().Add(s.readTimeout()))
	if _, err := pconn.WriteTo(response, addr); err != nil {
		s.record(ctx, ep, client, eventlog.StatusError, nil, err)
		return
	}
	s.record(ctx, ep, client, eventlog.StatusSentEcho, response, nil)
}

// respondDNS synthesizes the answer for a raw DNS query.
func (s *Server) respondDNS(ctx context.Context, query []byte) ([]byte, error) {
	response, err := wire.BuildDNSResponse(query, s.AnswerAddr)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		// The response is valid even when the query does not parse
		// entirely, so the question is informational only.
		msg := &dns.Msg{}
		if err := msg.Unpack(query); err == nil && len(msg.Question) > 0 {
			s.Logger.DebugContext(ctx, "dnsQuestion",
				slog.String("dnsQueryName", msg.Question[0].Name),
				slog.String("dnsQueryType", dns.TypeToString[msg.Question[0].Qtype]),
				slog.String("dnsAnswerAddr", s.AnswerAddr.String()),
			)
		}
	}
	return response, nil
}

// echoResponse returns "ECHO:<label>:" followed by the request.
func echoResponse(label string, request []byte) []byte {
	response := make([]byte, 0, len("ECHO:")+len(label)+1+len(request))
	response = append(response, "ECHO:"...)
	response = append(response, label...)
	response = append(response, ':')
	return append(response, request...)
}
