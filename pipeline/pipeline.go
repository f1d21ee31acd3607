package pipeline

import (
	"context"
	"errors"
	"fmt"

	"pohchain/exception"
	"pohchain/ledger"
	"pohchain/logx"
	"pohchain/types"
)

// ErrPipelineFull is the backpressure signal returned by TrySubmit when the
// conduit is at capacity.
var ErrPipelineFull = errors.New("pipeline_full: submission pipeline is at capacity")

// ErrPipelineClosed is returned once Stop has been called.
var ErrPipelineClosed = errors.New("pipeline_closed: submission pipeline is shut down")

// Pipeline is the bounded conduit between external callers and admission.
// It decouples bursty submission from the strictly sequential ledger owner;
// per-producer FIFO order is preserved by the channel, no cross-producer
// order is promised.
type Pipeline struct {
	ch   chan *types.Transaction
	ld   *ledger.Ledger
	quit chan struct{}
}

// NewPipeline creates a conduit with the given fixed capacity.
func NewPipeline(capacity int, ld *ledger.Ledger) *Pipeline {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pipeline{
		ch:   make(chan *types.Transaction, capacity),
		ld:   ld,
		quit: make(chan struct{}),
	}
}

// Start launches the worker loop feeding admission.
func (p *Pipeline) Start() {
	exception.SafeGo("pipeline-worker", p.loop)
}

func (p *Pipeline) loop() {
	for {
		select {
		case <-p.quit:
			return
		case tx := <-p.ch:
			if _, err := p.ld.SubmitTx(tx); err != nil {
				// Rejections are terminal for the submission; the
				// admission stage already reported the reason.
				logx.Debug("PIPELINE", fmt.Sprintf("Submission rejected | id=%s err=%v", tx.ID, err))
			}
		}
	}
}

// TrySubmit enqueues tx or rejects immediately with ErrPipelineFull when
// the conduit is at capacity.
func (p *Pipeline) TrySubmit(tx *types.Transaction) error {
	select {
	case <-p.quit:
		return ErrPipelineClosed
	default:
	}

	select {
	case p.ch <- tx:
		return nil
	default:
		return ErrPipelineFull
	}
}

// Submit blocks until the conduit has space, the context is cancelled, or
// the pipeline shuts down. Cancellation is only possible before admission.
func (p *Pipeline) Submit(ctx context.Context, tx *types.Transaction) error {
	select {
	case p.ch <- tx:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPipelineClosed
	}
}

// Stop shuts the worker loop down. Transactions still buffered are dropped.
func (p *Pipeline) Stop() {
	close(p.quit)
}

// Len returns the number of buffered submissions.
func (p *Pipeline) Len() int {
	return len(p.ch)
}

// Cap returns the fixed capacity.
func (p *Pipeline) Cap() int {
	return cap(p.ch)
}
