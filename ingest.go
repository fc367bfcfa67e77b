package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const maxLineSize = 64 * 1024

var (
	// ErrDefeated ends an ingestion loop whose player can no longer act.
	ErrDefeated = errors.New("player defeated")
	// ErrLineTooLong marks an agent line longer than maxLineSize. The line is
	// discarded and reading continues with the next one.
	ErrLineTooLong = fmt.Errorf("%w: line exceeds %d bytes", ErrDecode, maxLineSize)
)

// IngestInputs reads command lines from r and applies them to p until r ends
// or p is defeated. The defeat check runs before each line is decoded, so no
// input is applied once health or energy is exhausted. Undecodable or
// over-long lines are reported to onDecodeError and applied as empty input.
//
// It returns nil on EOF, ErrDefeated on defeat, or the read error.
func IngestInputs(p *Player, r io.Reader, onDecodeError func(error)) error {
	br := bufio.NewReaderSize(r, maxLineSize)
	for {
		line, err := br.ReadSlice('\n')
		tooLong := false
		for err == bufio.ErrBufferFull {
			tooLong = true
			_, err = br.ReadSlice('\n')
		}
		if len(line) > 0 || tooLong {
			if p.Defeated() {
				return ErrDefeated
			}
			var in ControlInput
			derr := ErrLineTooLong
			if !tooLong {
				in, derr = DecodeControl(line)
			}
			if derr != nil && onDecodeError != nil {
				onDecodeError(derr)
			}
			p.ApplyControl(in)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// ingest is the per-player ingestion goroutine.
func (e *Engine) ingest(p *Player, conn *agentConn) {
	defer e.wg.Done()
	err := IngestInputs(p, conn, func(err error) {
		e.Metrics.IncDecodeErrors()
		e.log.Debugw("bad agent frame", "player", p.ID, "err", err)
	})
	switch {
	case errors.Is(err, ErrDefeated):
		// Stop listening only; the agent process is left alone.
		e.log.Infow("ingestion stopped, player defeated", "player", p.ID, "name", p.Name())
		return
	case err != nil:
		e.log.Warnw("agent stream read failed", "player", p.ID, "err", err)
	default:
		e.log.Infow("agent stream closed", "player", p.ID, "name", p.Name())
	}
	if cerr := conn.Close(); cerr != nil {
		e.log.Debugw("closing agent stream", "player", p.ID, "err", cerr)
	}
}

// writeFeedback is the per-player writer goroutine. A slow agent blocks only
// this goroutine; the tick loop drops frames instead of waiting.
func (e *Engine) writeFeedback(p *Player, w io.Writer) {
	defer e.wg.Done()
	for {
		select {
		case frame := <-p.feedback:
			if _, err := w.Write(frame); err != nil {
				e.log.Debugw("feedback write failed", "player", p.ID, "err", err)
				return
			}
		case <-p.Done():
			return
		case <-e.stop:
			return
		}
	}
}
