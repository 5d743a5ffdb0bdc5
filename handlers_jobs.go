package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (a *App) HandleRunClosePrice(w http.ResponseWriter, r *http.Request) {
	job, err := a.jobs.Start()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("close-price run requested", zap.String("job", job.ID), zap.Int64("by", accountNo(r.Context())))
	writeJSON(w, http.StatusAccepted, job)
}

func (a *App) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.jobs.Get(mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *App) HandleCancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.jobs.Cancel(mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
