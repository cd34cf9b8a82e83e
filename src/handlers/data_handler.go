// src/handlers/data_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/services"
	"github.com/username/finsight/src/utils"
	"github.com/username/finsight/src/validation"
)

type DataHandler struct {
	dataService services.DataService
}

func NewDataHandler(service services.DataService) *DataHandler {
	return &DataHandler{
		dataService: service,
	}
}

// HandleLoadData runs a full load from both configured sources.
func (h *DataHandler) HandleLoadData(w http.ResponseWriter, r *http.Request) {
	logger.L.Info("Processing data load request")

	result, err := h.dataService.LoadFromSources()
	if err != nil {
		if errors.Is(err, services.ErrDataSource) {
			logger.L.Warn("Data load failed: source unavailable", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else if errors.Is(err, services.ErrSourceFormat) {
			logger.L.Warn("Data load failed: malformed source document", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error during data load", "error", err)
			utils.SendJSONError(w, "An internal error occurred while loading data. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	response := struct {
		Message string `json:"message"`
		models.LoadResult
	}{
		Message:    "Data loaded successfully",
		LoadResult: *result,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding JSON response for data load", "error", err)
	}
}

// HandleUploadDocument ingests a raw report document posted as the request
// body. The source format is selected with the ?source= query parameter.
func (h *DataHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source != models.SourceQuickBooks && source != models.SourceRootfi {
		utils.SendJSONError(w, fmt.Sprintf("unknown source '%s': expected '%s' or '%s'",
			source, models.SourceQuickBooks, models.SourceRootfi), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	defer body.Close()

	count, err := h.dataService.IngestDocument(source, body)
	if err != nil {
		if errors.Is(err, services.ErrSourceFormat) {
			logger.L.Warn("Upload rejected: malformed document", "source", source, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error ingesting uploaded document", "source", source, "error", err)
			utils.SendJSONError(w, "An internal error occurred while ingesting the document. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "Document ingested successfully",
		"source":      source,
		"new_records": count,
	})
}

// HandleGetPeriods returns all stored periods, optionally filtered with the
// ?source= query parameter.
func (h *DataHandler) HandleGetPeriods(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	periods, err := h.dataService.GetAllPeriods(source)
	if err != nil {
		logger.L.Error("Error fetching periods", "source", source, "error", err)
		utils.SendJSONError(w, "Error fetching periods.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(periods); err != nil {
		logger.L.Error("Error encoding JSON response for periods", "error", err)
	}
}

// HandleGetPeriodRange returns stored periods within [start_date, end_date].
func (h *DataHandler) HandleGetPeriodRange(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	source := r.URL.Query().Get("source")

	if startDate == "" || endDate == "" {
		utils.SendJSONError(w, "start_date and end_date query parameters are required", http.StatusBadRequest)
		return
	}

	periods, err := h.dataService.GetPeriodRange(startDate, endDate, source)
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			logger.L.Error("Error fetching period range", "error", err)
			utils.SendJSONError(w, "Error fetching period range.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(periods); err != nil {
		logger.L.Error("Error encoding JSON response for period range", "error", err)
	}
}

// HandleGetSummary returns summary statistics across all stored data. The
// response carries an ETag so clients can revalidate cheaply.
func (h *DataHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dataService.GetSummaryStatistics()
	if err != nil {
		logger.L.Error("Error generating summary statistics", "error", err)
		utils.SendJSONError(w, "Error generating summary.", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		utils.SendJSONError(w, "No financial data found", http.StatusNotFound)
		return
	}

	etag, err := utils.GenerateETag(stats)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		logger.L.Error("Error encoding JSON response for summary", "error", err)
	}
}
