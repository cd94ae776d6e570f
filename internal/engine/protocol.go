package engine

import (
	"bytes"
	"fmt"
	"strings"
)

// UCI commands and acknowledgement tokens.
const (
	cmdUCI       = "uci"
	cmdIsReady   = "isready"
	tokenUCIOK   = "uciok"
	tokenReadyOK = "readyok"
	lineEnd      = "\r\n"
)

// protocol is the handshake state machine of one slot. It owns the output
// accumulator and is only touched with the slot mutex held.
//
// Tokens are found by substring search rather than line parsing, so an ack
// split across reads is still matched. scan marks where the next search
// starts: it moves past every matched token, which is what keeps a readyok
// received before uciok from satisfying the ready step later.
type protocol struct {
	expect Expect
	buf    []byte
	scan   int // next token search offset
	line   int // start of the first line not yet inspected
	// bytes received since the current ack started being awaited
	pending int

	maxBytes   int
	maxPending int
}

// step is what one chunk of output asks of the caller.
type step struct {
	reply     string // command to send, if any
	handshake bool   // uciok seen on this chunk
	ready     bool   // readyok seen on this chunk
	best      *BestMove
	err       error
}

func newProtocol(maxBytes, maxPending int) protocol {
	return protocol{maxBytes: maxBytes, maxPending: maxPending}
}

// begin resets the accumulator and waits for the handshake ack.
func (p *protocol) begin() {
	p.reset()
	p.expect = ExpectHandshakeAck
}

func (p *protocol) reset() {
	p.expect = ExpectNone
	p.buf = nil
	p.scan = 0
	p.line = 0
	p.pending = 0
}

func (p *protocol) output() string { return string(p.buf) }

func (p *protocol) feed(chunk []byte) step {
	var st step
	p.buf = append(p.buf, chunk...)
	if p.expect != ExpectNone {
		p.pending += len(chunk)
	}

	for p.expect != ExpectNone {
		tok := tokenUCIOK
		if p.expect == ExpectReadyAck {
			tok = tokenReadyOK
		}
		i := bytes.Index(p.buf[p.scan:], []byte(tok))
		if i < 0 {
			// Only the tail can still be the start of a split token.
			if keep := len(p.buf) - len(tok) + 1; keep > p.scan {
				p.scan = keep
			}
			break
		}
		// lines that ended before the ack belong to the current stage
		if st.err = p.inspect(p.scan+i, &st); st.err != nil {
			return st
		}
		p.scan += i + len(tok)
		p.pending = 0
		if p.expect == ExpectHandshakeAck {
			p.expect = ExpectReadyAck
			st.handshake = true
			st.reply = cmdIsReady
		} else {
			p.expect = ExpectNone
			st.ready = true
		}
	}
	if st.err = p.inspect(len(p.buf), &st); st.err != nil {
		return st
	}

	if p.expect != ExpectNone && p.maxPending > 0 && p.pending > p.maxPending {
		st.err = &ProtocolError{Expect: p.expect, Msg: fmt.Sprintf("no %s within %d bytes of output", p.expect, p.maxPending)}
		return st
	}
	p.trim()
	return st
}

// inspect checks every complete line whose newline lies before limit. While
// an ack is awaited an "Unknown command" reply is a protocol error; once idle,
// bestmove lines are recorded in st.
func (p *protocol) inspect(limit int, st *step) error {
	for {
		i := bytes.IndexByte(p.buf[p.line:], '\n')
		if i < 0 || p.line+i >= limit {
			return nil
		}
		ln := strings.TrimSpace(string(p.buf[p.line : p.line+i]))
		p.line += i + 1
		if p.expect != ExpectNone {
			if strings.HasPrefix(strings.ToLower(ln), "unknown command") {
				return &ProtocolError{Expect: p.expect, Msg: ln}
			}
			continue
		}
		if bm, ok := parseBestMove(ln); ok {
			st.best = &bm
		}
	}
}

// trim discards the oldest output once the accumulator is a quarter over its
// cap. Offsets are shifted with it; unscanned bytes are never dropped.
func (p *protocol) trim() {
	if p.maxBytes <= 0 || len(p.buf) <= p.maxBytes+p.maxBytes/4 {
		return
	}
	cut := len(p.buf) - p.maxBytes
	if p.expect != ExpectNone && cut > p.scan {
		cut = p.scan
	}
	if cut <= 0 {
		return
	}
	n := copy(p.buf, p.buf[cut:])
	p.buf = p.buf[:n]
	p.scan = max(p.scan-cut, 0)
	p.line = max(p.line-cut, 0)
}

// parseBestMove parses "bestmove <move> [ponder <move>]".
func parseBestMove(line string) (BestMove, bool) {
	f := strings.Fields(line)
	if len(f) < 2 || f[0] != "bestmove" {
		return BestMove{}, false
	}
	bm := BestMove{Move: f[1]}
	if len(f) >= 4 && f[2] == "ponder" {
		bm.Ponder = f[3]
	}
	return bm, true
}
