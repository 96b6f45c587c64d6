package ui

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/symmetry/internal/api"
)

// Operation names a user action in messages
type Operation string

const (
	OpArticleFetch Operation = "Article fetch"
	OpTranslation  Operation = "Translation"
	OpComparison   Operation = "Comparison"
)

// ErrorMessage turns a failed backend call into the text shown to the user.
// baseURL is the backend address used for connectivity hints.
func ErrorMessage(op Operation, err error, baseURL string) string {
	if err == nil {
		return ""
	}

	e := api.Classify(err, 0)
	switch e.Kind {
	case api.KindTimeout:
		return fmt.Sprintf("Request timed out after %d seconds. Try reducing the size of the text.", seconds(e.Elapsed))
	case api.KindCanceled:
		return fmt.Sprintf("%s stopped by user.", op)
	case api.KindHTTP:
		return httpMessage(op, e, baseURL)
	case api.KindNetwork:
		return fmt.Sprintf("No response from the backend. Check that it is running and reachable at %s.", baseURL)
	case api.KindUnknown:
		return fmt.Sprintf("%s failed: %s", op, e.Message)
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}

func httpMessage(op Operation, e *api.Error, baseURL string) string {
	switch {
	case e.Status == http.StatusBadRequest:
		return withDetail("Bad request (400).", e.Detail)
	case e.Status == http.StatusNotFound:
		return fmt.Sprintf("%s endpoint not found (404). Verify that the backend is reachable at %s.", op, baseURL)
	case e.Status == http.StatusUnprocessableEntity:
		return withDetail("Validation error (422).", e.Detail)
	case e.Status >= 500:
		return withDetail(fmt.Sprintf("Server error (%d).", e.Status), e.Detail)
	default:
		return fmt.Sprintf("%s failed: %s", op, e.Error())
	}
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + " " + detail
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

// isCanceled reports whether err is a user cancellation rather than a failure
func isCanceled(err error) bool {
	return err != nil && api.Classify(err, 0).Kind == api.KindCanceled
}
