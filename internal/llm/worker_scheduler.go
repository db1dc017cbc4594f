package llm

import (
	"context"
	"sync"
)

// WorkerScheduler runs a fixed number of sentiment workers and stops them
// together.
type WorkerScheduler struct {
	mu      sync.Mutex
	worker  Worker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewWorkerScheduler(worker Worker) *WorkerScheduler {
	return &WorkerScheduler{worker: worker}
}

// Start launches count workers. Calling Start again while running is a no-op.
func (s *WorkerScheduler) Start(ctx context.Context, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if count <= 0 {
		count = 1
	}
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	for i := 0; i < count; i++ {
		worker := s.worker
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			worker.Start(workerCtx)
		}()
	}
}

func (s *WorkerScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}
