package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/screener/backend/internal/scheduler"
)

// JobRunner is the scheduler surface exposed over HTTP
type JobRunner interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(name string) error
}

// SchedulerHandler exposes job statistics and manual runs
type SchedulerHandler struct {
	jobs JobRunner
}

func NewSchedulerHandler(jobs JobRunner) *SchedulerHandler {
	return &SchedulerHandler{jobs: jobs}
}

// GetJobs returns statistics for every registered job
// GET /api/scheduler/jobs
func (h *SchedulerHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.jobs.GetJobStats())
}

// RunJob starts a job outside its schedule
// POST /api/scheduler/jobs/{name}/run
func (h *SchedulerHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.jobs.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondData(w, http.StatusAccepted, map[string]string{"job": name, "status": "started"})
}
