package printer

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job states
const (
	StatusQueued    = "queued"
	StatusPrinting  = "printing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PrintJob represents a print job. Payload holds ready ESC/POS bytes;
// Image is set instead for raster printers.
type PrintJob struct {
	ID          string      `json:"id"`
	PrinterID   string      `json:"printer_id"`
	Kind        string      `json:"kind"`
	Payload     []byte      `json:"-"`
	Image       image.Image `json:"-"`
	Size        int         `json:"size"`
	Retries     int         `json:"retries"`
	Status      string      `json:"status"`
	Error       error       `json:"-"`
	ErrorText   string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`

	nextAttempt time.Time
}

// PrintQueue manages print jobs with retry logic
type PrintQueue struct {
	jobs       []*PrintJob
	mu         sync.Mutex
	pool       *ConnectionPool
	manager    *Manager
	maxRetries int
	retryDelay time.Duration
	onStatus   func(PrintJob)
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewPrintQueue creates a new print queue and starts its worker
func NewPrintQueue(pool *ConnectionPool, manager *Manager, maxRetries int) *PrintQueue {
	if maxRetries < 1 {
		maxRetries = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &PrintQueue{
		jobs:       make([]*PrintJob, 0),
		pool:       pool,
		manager:    manager,
		maxRetries: maxRetries,
		retryDelay: time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// SetRetryDelay changes the wait between attempts of a failing job
func (q *PrintQueue) SetRetryDelay(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retryDelay = d
}

// OnStatus sets a callback invoked with a snapshot whenever a job changes state
func (q *PrintQueue) OnStatus(callback func(PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onStatus = callback
}

// Enqueue adds raw ESC/POS bytes to the queue
func (q *PrintQueue) Enqueue(printerID, kind string, payload []byte) string {
	return q.add(&PrintJob{
		PrinterID: printerID,
		Kind:      kind,
		Payload:   payload,
		Size:      len(payload),
	})
}

// EnqueueImage adds a raster job to the queue
func (q *PrintQueue) EnqueueImage(printerID, kind string, img image.Image) string {
	return q.add(&PrintJob{
		PrinterID: printerID,
		Kind:      kind,
		Image:     img,
	})
}

func (q *PrintQueue) add(job *PrintJob) string {
	job.ID = uuid.New().String()
	job.Status = StatusQueued
	job.CreatedAt = time.Now()

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	snapshot, notify := *job, q.onStatus
	q.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return job.ID
}

// worker processes print jobs
func (q *PrintQueue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *PrintQueue) processNextJob() {
	q.mu.Lock()

	now := time.Now()
	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == StatusQueued && !now.Before(j.nextAttempt) {
			job = j
			job.Status = StatusPrinting
			break
		}
	}

	q.mu.Unlock()

	if job == nil {
		return
	}

	err := q.printJob(job)

	q.mu.Lock()
	if err != nil {
		job.Retries++
		job.Error = err
		job.ErrorText = err.Error()

		if job.Retries >= q.maxRetries {
			job.Status = StatusFailed
			job.CompletedAt = time.Now()
			log.Printf("❌ Print job %s failed after %d retries: %v", job.ID, job.Retries, err)
		} else {
			job.Status = StatusQueued
			job.nextAttempt = time.Now().Add(q.retryDelay)
			log.Printf("⚠️  Print job %s failed, retrying (%d/%d): %v",
				job.ID, job.Retries, q.maxRetries, err)
		}
	} else {
		job.Status = StatusCompleted
		job.CompletedAt = time.Now()
		log.Printf("✅ Print job %s completed (%s)", job.ID, job.Kind)
	}
	snapshot, notify := *job, q.onStatus
	q.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}

func (q *PrintQueue) printJob(job *PrintJob) error {
	if !q.pool.IsConnected(job.PrinterID) {
		printer := q.manager.GetPrinter(job.PrinterID)
		if printer == nil {
			return fmt.Errorf("%w: %s", ErrPrinterNotFound, job.PrinterID)
		}

		if err := q.pool.Connect(printer); err != nil {
			return fmt.Errorf("failed to connect to printer: %w", err)
		}
	}

	if job.Image != nil {
		return q.pool.PrintImage(job.PrinterID, job.Image)
	}
	return q.pool.Send(job.PrinterID, job.Payload)
}

// GetJob returns a copy of a job by ID
func (q *PrintQueue) GetJob(jobID string) *PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			jobCopy := *job
			return &jobCopy
		}
	}

	return nil
}

// GetAllJobs returns copies of all jobs, oldest first
func (q *PrintQueue) GetAllJobs() []*PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobCopy := *job
		jobs[i] = &jobCopy
	}

	return jobs
}

// Pending counts jobs that have not finished yet
func (q *PrintQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, job := range q.jobs {
		if job.Status == StatusQueued || job.Status == StatusPrinting {
			n++
		}
	}
	return n
}

// ClearCompleted removes completed jobs from the queue
func (q *PrintQueue) ClearCompleted() int {
	return q.clear(func(j *PrintJob) bool { return j.Status == StatusCompleted })
}

// ClearFinished removes completed and failed jobs from the queue
func (q *PrintQueue) ClearFinished() int {
	return q.clear(func(j *PrintJob) bool {
		return j.Status == StatusCompleted || j.Status == StatusFailed
	})
}

func (q *PrintQueue) clear(drop func(*PrintJob) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*PrintJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if !drop(job) {
			filtered = append(filtered, job)
		}
	}

	removed := len(q.jobs) - len(filtered)
	q.jobs = filtered
	return removed
}

// Stop stops the print queue worker
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}
