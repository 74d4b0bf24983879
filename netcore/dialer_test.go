// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rbmk-project/common/mocks"
	"github.com/rbmk-project/common/runtimex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_DialContext(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		expectedErr := errors.New("mocked lookup error")
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, expectedErr
			},
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "example.com:80")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, conn)
	})

	t.Run("every endpoint fails", func(t *testing.T) {
		expectedErr1 := errors.New("error 1")
		expectedErr2 := errors.New("error 2")
		var dialed []string
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"2.2.2.2", "1.1.1.1"}, nil
			},
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialed = append(dialed, address)
				if address == "2.2.2.2:80" {
					return nil, expectedErr1
				}
				return nil, expectedErr2
			},
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "example.com:80")
		assert.Nil(t, conn)
		assert.Equal(t, []string{"2.2.2.2:80", "1.1.1.1:80"}, dialed)
		assert.ErrorIs(t, err, expectedErr1)
		assert.ErrorIs(t, err, expectedErr2)
	})

	t.Run("second endpoint succeeds", func(t *testing.T) {
		mockConn := &mocks.Conn{}
		attempts := 0
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"1.1.1.1", "2.2.2.2"}, nil
			},
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				attempts++
				if attempts == 1 {
					return nil, errors.New("first endpoint fails")
				}
				return mockConn, nil
			},
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "example.com:80")
		assert.NoError(t, err)
		assert.Equal(t, net.Conn(mockConn), conn)
		assert.Equal(t, 2, attempts)
	})

	t.Run("canceled context stops after the first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"1.1.1.1", "2.2.2.2"}, nil
			},
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				attempts++
				cancel()
				return nil, ctx.Err()
			},
		}
		_, err := nx.DialContext(ctx, "tcp", "example.com:80")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("successful dial with logger observes the conn", func(t *testing.T) {
		var buf bytes.Buffer
		mockConn := &mocks.Conn{
			MockLocalAddr: func() net.Addr {
				return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234}
			},
			MockRemoteAddr: func() net.Addr {
				return &net.TCPAddr{IP: net.ParseIP("1.2.3.4"), Port: 80}
			},
		}
		nx := NewNetwork()
		nx.Logger = newTestLogger(&buf)
		nx.DialContextFunc = func(ctx context.Context, network, address string) (net.Conn, error) {
			return mockConn, nil
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "1.2.3.4:80")
		assert.NoError(t, err)
		assert.IsType(t, &observedConn{}, conn)
	})

	t.Run("local listener", func(t *testing.T) {
		listener := runtimex.Try1(net.Listen("tcp", "127.0.0.1:0"))
		defer listener.Close()
		go func() {
			conn, err := listener.Accept()
			if err == nil {
				conn.Close()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, err := NewNetwork().DialContext(ctx, "tcp", listener.Addr().String())
		require.NoError(t, err)
		conn.Close()
	})
}

func TestNetwork_dialOne(t *testing.T) {
	t.Run("successful dial with logging", func(t *testing.T) {
		var buf bytes.Buffer
		mockConn := &mocks.Conn{
			MockLocalAddr: func() net.Addr {
				return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234}
			},
		}
		nx := &Network{
			Logger:  newTestLogger(&buf),
			TimeNow: func() time.Time { return fixedTime },
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				return mockConn, nil
			},
		}

		conn, err := nx.dialOne(context.Background(), "udp", "8.8.8.8:53")
		assert.NoError(t, err)
		assert.Equal(t, net.Conn(mockConn), conn)

		logs := parseLogs(t, &buf)
		require.Len(t, logs, 2)
		assert.Equal(t, map[string]interface{}{
			"level":      "INFO",
			"msg":        "connectStart",
			"protocol":   "udp",
			"remoteAddr": "8.8.8.8:53",
			"t":          fixedTime.Format(time.RFC3339Nano),
		}, logs[0])
		assert.Equal(t, map[string]interface{}{
			"level":      "INFO",
			"msg":        "connectDone",
			"err":        nil,
			"errClass":   "",
			"localAddr":  "127.0.0.1:1234",
			"protocol":   "udp",
			"remoteAddr": "8.8.8.8:53",
			"t0":         fixedTime.Format(time.RFC3339Nano),
			"t":          fixedTime.Format(time.RFC3339Nano),
		}, logs[1])
	})

	t.Run("dial failure with logging", func(t *testing.T) {
		var buf bytes.Buffer
		expectedErr := errors.New("mocked dial error")
		nx := &Network{
			Logger:  newTestLogger(&buf),
			TimeNow: func() time.Time { return fixedTime },
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, expectedErr
			},
		}

		conn, err := nx.dialOne(context.Background(), "tcp", "1.1.1.1:80")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, conn)

		logs := parseLogs(t, &buf)
		require.Len(t, logs, 2)
		assert.Equal(t, "connectDone", logs[1]["msg"])
		assert.Equal(t, expectedErr.Error(), logs[1]["err"])
		assert.Equal(t, "EGENERIC", logs[1]["errClass"])
		assert.Equal(t, "", logs[1]["localAddr"])
	})

	t.Run("refused connection", func(t *testing.T) {
		listener := runtimex.Try1(net.Listen("tcp", "127.0.0.1:0"))
		address := listener.Addr().String()
		listener.Close()

		conn, err := (&Network{}).dialOne(context.Background(), "tcp", address)
		assert.Error(t, err)
		assert.Nil(t, conn)
	})
}
