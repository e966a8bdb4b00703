// Package stdio serves the gateway as newline-delimited JSON-RPC over a
// pair of streams, normally stdin and stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp/jsonrpc"
	"github.com/jstewartrr/sm-mcp-gateway-v2/transport/shared"
)

const maxLineBytes = 1 << 20

// StdioServer handles MCP communication over stdio
type StdioServer struct {
	gateway shared.Gateway
	in      io.Reader
	out     io.Writer
}

// NewStdioServer creates a server on os.Stdin and os.Stdout.
func NewStdioServer(gw shared.Gateway) *StdioServer {
	return NewServer(gw, os.Stdin, os.Stdout)
}

// NewServer creates a server on arbitrary streams.
func NewServer(gw shared.Gateway, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{gateway: gw, in: in, out: out}
}

// frame is one input line. Lines over maxLineBytes are drained and reported
// as tooLong with no data.
type frame struct {
	data    []byte
	tooLong bool
}

// readFrame reads up to the next newline without holding more than
// maxLineBytes of it in memory.
func readFrame(r *bufio.Reader) (frame, error) {
	var f frame
	for {
		chunk, err := r.ReadSlice('\n')
		if !f.tooLong {
			if len(f.data)+len(bytes.TrimRight(chunk, "\r\n")) > maxLineBytes {
				f.tooLong = true
				f.data = nil
			} else {
				f.data = append(f.data, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return f, err
	}
}

// Serve answers one request per input line until EOF or ctx is done.
// Responses are written one per line; notifications get none.
func (s *StdioServer) Serve(ctx context.Context) error {
	frames := make(chan frame)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReaderSize(s.in, 64*1024)
		for {
			f, err := readFrame(reader)
			if len(f.data) > 0 || f.tooLong {
				select {
				case frames <- f:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	encoder := json.NewEncoder(s.out)
	logger.Debug("Stdio server started and waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read stdin: %w", err)
			}
			logger.Debug("Stdio EOF received, terminating server")
			return nil
		case f := <-frames:
			var response *jsonrpc.Response
			if f.tooLong {
				logger.Warn("Stdio request exceeds size limit", "limit", maxLineBytes)
				response = jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInvalidRequest), "Request too large", nil)
			} else {
				if len(bytes.TrimSpace(f.data)) == 0 {
					continue
				}
				response, _ = shared.ProcessFrame(ctx, s.gateway, f.data)
			}
			if response == nil {
				continue
			}
			if err := encoder.Encode(response); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}
