package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"marketdata_backend/services"
)

// JobKind names one registered refresh job
type JobKind string

const (
	JobIndexQuotes    JobKind = "refresh-index-quotes"
	JobIndexHistories JobKind = "refresh-index-histories"
	JobMarketMovers   JobKind = "refresh-market-movers"
	JobIndexNews      JobKind = "refresh-index-news"
)

// jobBudget bounds how long one refresh sweep may run
const jobBudget = 10 * time.Minute

// JobFunc is the body of one refresh job
type JobFunc func(ctx context.Context) error

// Scheduler manages the periodic cache refresh jobs
type Scheduler struct {
	cron    *gocron.Scheduler
	db      *gorm.DB
	history *services.HistoryService
	quotes  *services.QuoteService
	movers  *services.MoversService
	news    *services.NewsService
	delay   time.Duration

	registry map[JobKind]JobFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	db *gorm.DB,
	history *services.HistoryService,
	quotes *services.QuoteService,
	movers *services.MoversService,
	news *services.NewsService,
	delay time.Duration,
) *Scheduler {
	s := &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		db:      db,
		history: history,
		quotes:  quotes,
		movers:  movers,
		news:    news,
		delay:   delay,
	}
	s.registry = map[JobKind]JobFunc{
		JobIndexQuotes:    s.refreshIndexQuotes,
		JobIndexHistories: s.refreshIndexHistories,
		JobMarketMovers:   s.refreshMarketMovers,
		JobIndexNews:      s.refreshIndexNews,
	}
	return s
}

// Resolve returns the registered body of a job kind
func (s *Scheduler) Resolve(kind JobKind) (JobFunc, error) {
	job, ok := s.registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown job kind: %s", kind)
	}
	return job, nil
}

// Kinds lists the registered job kinds
func (s *Scheduler) Kinds() []JobKind {
	kinds := make([]JobKind, 0, len(s.registry))
	for kind := range s.registry {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Start registers all jobs and starts the scheduler
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	s.cron.Every(5).Minutes().Do(s.runJob, JobIndexQuotes)
	s.cron.Every(1).Day().At("22:00").Do(s.runJob, JobIndexHistories)
	s.cron.Every(4).Hours().Do(s.runJob, JobMarketMovers)
	s.cron.Every(6).Hours().Do(s.runJob, JobIndexNews)

	s.cron.SingletonModeAll()
	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runJob resolves and runs one job kind inside the job budget
func (s *Scheduler) runJob(kind JobKind) {
	job, err := s.Resolve(kind)
	if err != nil {
		log.Printf("Scheduler: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobBudget)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		log.Printf("Job %s failed after %v: %v", kind, time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("Job %s finished in %v", kind, time.Since(start).Round(time.Millisecond))
}
