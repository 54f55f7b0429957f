package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"crudload/internal/client"
	"crudload/internal/runner"
)

// Record is one attempt as written to the CSV report.
type Record struct {
	TimeStamp time.Time
	Latency   time.Duration
	Operation runner.Operation
	Worker    int
	Seq       int
	Path      string
	Status    int
	Success   bool
	Exhausted bool
	Err       string
}

// Collector keeps every attempt of a run in memory.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func NewCollector(capacity int) *Collector {
	return &Collector{records: make([]Record, 0, capacity)}
}

// OnAttempt implements runner.Observer.
func (c *Collector) OnAttempt(a runner.Attempt) {
	rec := Record{
		// Attempts are reported on completion; stamp them with their start.
		TimeStamp: time.Now().Add(-a.Latency),
		Latency:   a.Latency,
		Operation: a.Operation,
		Worker:    a.Worker,
		Seq:       a.Seq,
		Path:      "/api/users",
		Status:    a.Status,
		Success:   a.Success(),
		Exhausted: errors.Is(a.Err, runner.ErrQueueExhausted),
	}
	if a.ItemID != 0 {
		rec.Path = client.UserPath(a.ItemID)
	}
	if a.Err != nil {
		rec.Err = a.Err.Error()
	}

	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
}

// Records returns a copy of what was collected so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// ExportCSV writes records to a JMeter-compatible CSV file.
// Schema: timeStamp,elapsed,label,responseCode,responseMessage,threadName,dataType,success,failureMessage,bytes,sentBytes,grpThreads,allThreads,URL,Latency,IdleTime,Connect
func ExportCSV(records []Record, workers int, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "label", "responseCode", "responseMessage",
		"threadName", "dataType", "success", "failureMessage", "bytes",
		"sentBytes", "grpThreads", "allThreads", "URL", "Latency", "IdleTime", "Connect",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	threads := strconv.Itoa(workers)
	for _, r := range records {
		elapsed := strconv.FormatInt(r.Latency.Milliseconds(), 10)
		record := []string{
			strconv.FormatInt(r.TimeStamp.UnixMilli(), 10),
			elapsed,
			fmt.Sprintf("%s %s", r.Operation.Method(), r.Path),
			strconv.Itoa(r.Status),
			http.StatusText(r.Status),
			fmt.Sprintf("Worker-%d", r.Worker),
			"text",
			strconv.FormatBool(r.Success),
			r.Err,
			"0", // bytes are not tracked
			"0",
			threads,
			threads,
			r.Path,
			elapsed,
			"0",
			"0",
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportJSON writes the run summary to a JSON file.
func ExportJSON(summary runner.RunSummary, filename string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// Write stores <prefix>.json and <prefix>.csv and returns both paths.
func Write(prefix string, summary runner.RunSummary, records []Record) (jsonPath, csvPath string, err error) {
	jsonPath, csvPath = prefix+".json", prefix+".csv"
	if err := ExportJSON(summary, jsonPath); err != nil {
		return "", "", fmt.Errorf("export summary: %w", err)
	}
	if err := ExportCSV(records, summary.Workers, csvPath); err != nil {
		return "", "", fmt.Errorf("export attempts: %w", err)
	}
	return jsonPath, csvPath, nil
}
