package api

import (
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/generation"
)

// BatchItemRequest is one document in a batch request.
type BatchItemRequest struct {
	ID      string `json:"id"      validate:"required,max=200"`
	Title   string `json:"title"   validate:"max=500"`
	Content string `json:"content" validate:"required"`
}

// BatchOptionsRequest carries generation options.
type BatchOptionsRequest struct {
	Kind           string `json:"kind"           validate:"omitempty,oneof=summary document_summary translation"`
	TargetLanguage string `json:"targetLanguage" validate:"max=64"`
	Style          string `json:"style"          validate:"omitempty,oneof=brief detailed bullets"`
	MaxWords       int    `json:"maxWords"       validate:"gte=0,lte=5000"`
}

// CreateBatchRequest is the body of POST /api/batches.
// The item count is checked by the service against the effective maximum.
type CreateBatchRequest struct {
	Items    []BatchItemRequest  `json:"items"    validate:"dive"`
	Options  BatchOptionsRequest `json:"options"`
	MaxItems int                 `json:"maxItems" validate:"gte=0"`
}

// SummaryResponse is the outcome of one item.
type SummaryResponse struct {
	ItemID           string `json:"itemId"`
	ItemTitle        string `json:"itemTitle"`
	ResultID         string `json:"resultId,omitempty"`
	Content          string `json:"content,omitempty"`
	ProcessingStatus string `json:"processingStatus"`
	Error            string `json:"error,omitempty"`
}

// BatchMetadataResponse carries the batch counters.
type BatchMetadataResponse struct {
	TotalDocuments      int   `json:"totalDocuments"`
	SuccessfulSummaries int   `json:"successfulSummaries"`
	FailedSummaries     int   `json:"failedSummaries"`
	ProcessingTime      int64 `json:"processingTime"`
}

// BatchResponse is the body returned for a batch.
type BatchResponse struct {
	BatchID   string                `json:"batchId"`
	Status    string                `json:"status"`
	Summaries []SummaryResponse     `json:"summaries"`
	Metadata  BatchMetadataResponse `json:"metadata"`
}

func (r CreateBatchRequest) workItems() []batch.WorkItem {
	items := make([]batch.WorkItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = batch.WorkItem{ID: it.ID, Title: it.Title, Content: it.Content}
	}
	return items
}

func (o BatchOptionsRequest) toOptions() generation.Options {
	return generation.Options{
		Kind:           generation.Kind(o.Kind),
		TargetLanguage: o.TargetLanguage,
		Style:          generation.Style(o.Style),
		MaxWords:       o.MaxWords,
	}
}

// NewBatchResponse converts a batch report to its wire form.
// ProcessingTime is in milliseconds.
func NewBatchResponse(report *batch.Report) BatchResponse {
	summaries := make([]SummaryResponse, len(report.Outcomes))
	for i, o := range report.Outcomes {
		s := SummaryResponse{
			ItemID:           o.ItemID,
			ItemTitle:        o.ItemTitle,
			ProcessingStatus: string(o.Status),
			Error:            o.Error,
		}
		if o.Succeeded() {
			s.ResultID = o.ResultID.String()
			s.Content = o.Result
		}
		summaries[i] = s
	}

	return BatchResponse{
		BatchID:   report.BatchID.String(),
		Status:    string(report.Status),
		Summaries: summaries,
		Metadata: BatchMetadataResponse{
			TotalDocuments:      report.TotalItems,
			SuccessfulSummaries: report.Succeeded,
			FailedSummaries:     report.Failed,
			ProcessingTime:      report.Elapsed.Milliseconds(),
		},
	}
}
