package core

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/store"
)

// ExtractionFailedPrefix starts the content stored for documents whose text
// could not be extracted.
const ExtractionFailedPrefix = "[extraction-failed]"

// MaxUploadSize is the largest document accepted by Upload.
const MaxUploadSize = 20 << 20

// placeholderMarkers are written by upstream extractors instead of real
// document text.
var placeholderMarkers = []string{
	"텍스트 추출에 실패",
	"텍스트를 추출할 수 없",
	"내용을 추출할 수 없",
	"추출된 텍스트가 없",
	"추출하는 중 오류",
	"제한적으로 지원",
	"형식의 문서입니다. 내용 분석을 위해 업로드",
	"powerpoint 파일이 업로드되었습니다",
	"text extraction failed",
	"could not extract text",
	"unable to extract text",
	"no extractable text",
}

// IsPlaceholderContent reports whether content is an extraction failure
// marker or binary residue rather than document text.
func IsPlaceholderContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, ExtractionFailedPrefix) {
		return true
	}
	if len(trimmed) < 300 {
		lowered := strings.ToLower(trimmed)
		for _, marker := range placeholderMarkers {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
	}
	return looksBinary(trimmed)
}

// looksBinary flags text where more than a tenth of the runes are
// replacement or control characters.
func looksBinary(s string) bool {
	var total, bad int
	for _, r := range s {
		total++
		if r == utf8.RuneError || (unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t') {
			bad++
		}
	}
	return total > 0 && bad*10 > total
}

// usableDocuments drops blank and placeholder entries.
func usableDocuments(docs []store.DocumentContext) []store.DocumentContext {
	usable := make([]store.DocumentContext, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" || IsPlaceholderContent(d.Content) {
			continue
		}
		usable = append(usable, d)
	}
	return usable
}

type DocumentService struct {
	dbStore   *store.SQLiteStore
	uploadDir string
}

func NewDocumentService(db *store.SQLiteStore, uploadDir string) *DocumentService {
	return &DocumentService{dbStore: db, uploadDir: uploadDir}
}

// Upload stores the file under the upload directory and records its
// extracted text, or a placeholder when extraction is not possible.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, agentID int64, originalName, mimeType string, data []byte) (*store.Document, error) {
	if _, err := managedAgent(ctx, s.dbStore, actor, agentID); err != nil {
		return nil, err
	}
	originalName = filepath.Base(strings.TrimSpace(originalName))
	if originalName == "" || originalName == "." || originalName == string(filepath.Separator) {
		return nil, apperrors.NewValidationError("file name is required", "")
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("file is empty", originalName)
	}
	if len(data) > MaxUploadSize {
		return nil, apperrors.NewValidationError("file is too large", fmt.Sprintf("maximum size is %d bytes", MaxUploadSize))
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(originalName))
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to prepare upload directory", err)
	}
	storageName := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	if err := os.WriteFile(filepath.Join(s.uploadDir, storageName), data, 0o644); err != nil {
		return nil, apperrors.NewInternalError("failed to store uploaded file", err)
	}

	content := extractText(originalName, mimeType, data)
	doc := &store.Document{
		AgentID:      agentID,
		Filename:     storageName,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		Content:      &content,
		UploadedBy:   actor.UserID,
	}
	if err := s.dbStore.CreateDocument(ctx, doc); err != nil {
		_ = os.Remove(filepath.Join(s.uploadDir, storageName))
		return nil, apperrors.NewInternalError("failed to save document", err)
	}

	log.Info().
		Int64("agent_id", agentID).
		Int64("document_id", doc.ID).
		Str("file", originalName).
		Bool("extracted", !IsPlaceholderContent(content)).
		Msg("Document uploaded")
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, actor Actor, agentID int64) ([]store.Document, error) {
	if _, err := managedAgent(ctx, s.dbStore, actor, agentID); err != nil {
		return nil, err
	}
	docs, err := s.dbStore.GetAgentDocuments(ctx, agentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list documents", err)
	}
	if docs == nil {
		docs = []store.Document{}
	}
	return docs, nil
}

func (s *DocumentService) Delete(ctx context.Context, actor Actor, documentID int64) error {
	doc, err := s.managedDocument(ctx, actor, documentID)
	if err != nil {
		return err
	}
	if err := s.dbStore.DeleteDocument(ctx, doc.ID); err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}
	if err := os.Remove(filepath.Join(s.uploadDir, doc.Filename)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", doc.Filename).Msg("Failed to remove stored document file")
	}
	return nil
}

// Reprocess re-runs extraction on the stored file.
func (s *DocumentService) Reprocess(ctx context.Context, actor Actor, documentID int64) (*store.Document, error) {
	doc, err := s.managedDocument(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.uploadDir, doc.Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("document file", doc.Filename)
		}
		return nil, apperrors.NewInternalError("failed to read stored document", err)
	}

	content := extractText(doc.OriginalName, doc.MimeType, data)
	if err := s.dbStore.UpdateDocumentContent(ctx, doc.ID, content); err != nil {
		return nil, apperrors.NewInternalError("failed to update document content", err)
	}
	doc.Content = &content
	return doc, nil
}

func (s *DocumentService) managedDocument(ctx context.Context, actor Actor, documentID int64) (*store.Document, error) {
	doc, err := s.dbStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load document", err)
	}
	if doc == nil {
		return nil, apperrors.NewNotFoundError("document", strconv.FormatInt(documentID, 10))
	}
	if _, err := managedAgent(ctx, s.dbStore, actor, doc.AgentID); err != nil {
		return nil, err
	}
	return doc, nil
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true, ".tsv": true,
	".json": true, ".html": true, ".htm": true, ".xml": true, ".yaml": true, ".yml": true,
}

// extractText handles plain-text formats. PDF and office formats are
// converted by an external extractor, so they get a placeholder here.
func extractText(name, mimeType string, data []byte) string {
	mediaType, _, _ := mime.ParseMediaType(mimeType)
	isText := strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/json" ||
		textExtensions[strings.ToLower(filepath.Ext(name))]
	if !isText {
		return fmt.Sprintf("%s %s: unsupported format %q", ExtractionFailedPrefix, name, mimeType)
	}
	if !utf8.Valid(data) {
		return fmt.Sprintf("%s %s: file is not valid UTF-8 text", ExtractionFailedPrefix, name)
	}
	text := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if text == "" {
		return fmt.Sprintf("%s %s: no text found", ExtractionFailedPrefix, name)
	}
	return text
}
