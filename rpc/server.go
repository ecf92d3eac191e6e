package recipecostrpc

import (
	"context"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"
)

// Serve accepts connections until ctx is cancelled, handling each on its own
// goroutine.
func (p *ServerProcessor) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	p.Logger.Info("rpc server listening", zap.Stringer("addr", ln.Addr()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go p.ServeConn(ctx, conn)
	}
}

// ServeConn reads request packets from conn and writes one response per
// request, in order.
func (p *ServerProcessor) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var buf PacketBuffer
	readBuf := make([]byte, 4096)
	for {
		n, err := conn.Read(readBuf)
		if n > 0 {
			pkts, feedErr := buf.Feed(readBuf[:n])
			for _, pkt := range pkts {
				resp := p.ProcessPkt(ctx, pkt)
				data, encErr := EncodePacket(resp)
				if encErr != nil {
					p.Logger.Error("encode response", zap.Error(encErr))
					return
				}
				if _, werr := conn.Write(data); werr != nil {
					p.Logger.Debug("write response", zap.Error(werr))
					return
				}
			}
			if feedErr != nil {
				p.Logger.Warn("malformed packet stream", zap.Error(feedErr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				p.Logger.Debug("connection read", zap.Error(err))
			}
			return
		}
	}
}
