package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/job"
)

var testDocuments *store.InMemoryDocumentStore
var testJobs chan jobModel.Job

// the handler singleton can only be wired once per test binary
func setupHandlers(t *testing.T) {
	t.Helper()
	if testDocuments == nil {
		testDocuments = store.InitInMemoryDocumentStore()
		testJobs = make(chan jobModel.Job, 10)
		InitHandlers(HandlerConfig{
			JobService: &job.Service{
				JobChannel:        testJobs,
				DispatcherChannel: make(chan bool, 10),
				JobStore:          store.InitInMemoryJobStore(),
			},
			Documents:    testDocuments,
			EmbedderName: "test",
		})
	}
}

func uploadRequest(t *testing.T, fileName string, contentType string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="document"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("creating form part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("writing form part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing form writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, "trace-test")
	return req.WithContext(ctx)
}

func TestUploadDocumentHandler_RejectsOversizedFile(t *testing.T) {
	setupHandlers(t)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	payload := bytes.Repeat([]byte("a"), config.MaxUploadSize+(1<<20))
	req := uploadRequest(t, "big.txt", "text/plain", payload)
	rec := httptest.NewRecorder()

	UploadDocumentHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized upload got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	select {
	case j := <-testJobs:
		t.Errorf("oversized upload still queued a job: %+v", j)
	default:
	}
}

func TestUploadDocumentHandler_RejectsUnsupportedType(t *testing.T) {
	setupHandlers(t)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	req := uploadRequest(t, "song.mp3", "audio/mpeg", []byte("not a document"))
	rec := httptest.NewRecorder()

	UploadDocumentHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadDocumentHandler_QueuesProcessingJob(t *testing.T) {
	setupHandlers(t)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	req := uploadRequest(t, "notes.txt", "text/plain", []byte("plain text content"))
	rec := httptest.NewRecorder()

	UploadDocumentHandler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload got %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var res api.InitJobResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Id == "" || res.DocumentId == "" || !strings.Contains(res.StatusURL, res.Id) {
		t.Errorf("incomplete job response: %+v", res)
	}

	doc, found := testDocuments.GetDocument(context.Background(), res.DocumentId)
	if !found {
		t.Fatal("uploaded document was not recorded")
	}
	if doc.ProcessingStatus != "pending" || doc.FileName != "notes.txt" {
		t.Errorf("unexpected document record: %+v", doc)
	}

	select {
	case j := <-testJobs:
		if j.DocumentId != res.DocumentId || j.JobType != jobModel.JobTypeProcess {
			t.Errorf("queued job does not match upload: %+v", j)
		}
	default:
		t.Error("no processing job was queued")
	}
}
