package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fieldreport/api/internal/orders"
	"fieldreport/api/internal/search"
	"fieldreport/api/internal/store"
)

const maxUploadBytes = 32 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

// actorFrom reads the acting user off the request headers set by the
// authenticating proxy.
func actorFrom(r *http.Request) orders.Actor {
	elevated, _ := strconv.ParseBool(r.Header.Get("X-Actor-Elevated"))
	return orders.Actor{
		Name:     strings.TrimSpace(r.Header.Get("X-Actor-Name")),
		Elevated: elevated,
	}
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/identities" {
		identities, err := s.service.ListIdentities(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list identities", nil)
			return
		}
		payload := make([]map[string]any, 0, len(identities))
		for _, identity := range identities {
			payload = append(payload, identityPayload(identity))
		}
		writeJSON(w, http.StatusOK, map[string]any{"identities": payload})
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) >= 2 && parts[0] == "api" {
		switch parts[1] {
		case "orders":
			s.handleOrders(w, r, parts[2:])
			return
		case "identities":
			if len(parts) == 4 && parts[3] == "signature" && r.Method == http.MethodPost {
				s.handleUploadSignature(w, r, parts[2])
				return
			}
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleOrders(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0:
		switch r.Method {
		case http.MethodGet:
			s.handleListOrders(w, r)
		case http.MethodPost:
			s.handleSaveOrder(w, r, "", false)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
	case len(rest) == 1:
		id := rest[0]
		switch r.Method {
		case http.MethodGet:
			s.handleGetOrder(w, r, id)
		case http.MethodPut:
			s.handleSaveOrder(w, r, id, false)
		case http.MethodDelete:
			s.handleDeleteOrder(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
	case len(rest) == 2:
		id := rest[0]
		switch {
		case rest[1] == "finalize" && r.Method == http.MethodPost:
			s.handleSaveOrder(w, r, id, true)
		case rest[1] == "evidence" && r.Method == http.MethodPost:
			s.handleUploadEvidence(w, r, id)
		case rest[1] == "report.pdf" && r.Method == http.MethodGet:
			s.handleRender(w, r, id, "pdf")
		case rest[1] == "report.docx" && r.Method == http.MethodGet:
			s.handleRender(w, r, id, "docx")
		case rest[1] == "email" && r.Method == http.MethodPost:
			s.handleEmailReport(w, r, id)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OrderFilter{
		Query:    q.Get("q"),
		Client:   q.Get("client"),
		Engineer: q.Get("engineer"),
		Status:   q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		filter.Offset = offset
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(param); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", param+" must be YYYY-MM-DD", nil)
				return
			}
			*dst = &t
		}
	}

	items, err := s.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list orders", nil)
		return
	}
	payload := make([]map[string]any, 0, len(items))
	for _, order := range items {
		payload = append(payload, orderPayload(order))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func (s *HTTPServer) handleGetOrder(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := s.service.GetOrder(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "Could not load order")
		return
	}
	writeJSON(w, http.StatusOK, detailPayload(detail))
}

type saveOrderBody struct {
	Folio            string   `json:"folio"`
	ClientName       string   `json:"clientName"`
	ClientContact    string   `json:"clientContact"`
	ClientEmail      string   `json:"clientEmail"`
	ClientPhone      string   `json:"clientPhone"`
	Location         string   `json:"location"`
	ServiceDate      string   `json:"serviceDate"`
	ContactName      string   `json:"contactName"`
	ServiceTypes     []string `json:"serviceTypes"`
	ServiceTypeOther string   `json:"serviceTypeOther"`
	EngineerName     string   `json:"engineerName"`
	EngineerID       string   `json:"engineerId"`
	TicketID         string   `json:"ticketId"`
	Title            string   `json:"title"`
	Activities       string   `json:"activities"`
	Findings         string   `json:"findings"`
	Hours            float64  `json:"hours"`
	Cost             float64  `json:"cost"`
	CostNA           bool     `json:"costNotApplicable"`
	CostTBQ          bool     `json:"costToBeQuoted"`
	Reschedule       bool     `json:"reschedule"`
	RescheduleDate   string   `json:"rescheduleDate"`
	RescheduleTime   string   `json:"rescheduleTime"`
	RescheduleReason string   `json:"rescheduleReason"`
	SignatureRef     string   `json:"signatureRef"`
	InternalNotes    string   `json:"internalNotes"`

	Equipment []equipmentBody `json:"equipment"`
	Materials []materialBody  `json:"materials"`
	Custody   []custodyBody   `json:"custody"`
}

type equipmentBody struct {
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Serial      string `json:"serial"`
	Description string `json:"description"`
}

type materialBody struct {
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Comments    string `json:"comments"`
}

type custodyBody struct {
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Comments    string `json:"comments"`
}

func (b saveOrderBody) toInput(id string, finalize bool) (SaveOrderInput, error) {
	in := SaveOrderInput{Finalize: finalize}
	o := store.ServiceOrder{
		ID:               id,
		ClientName:       b.ClientName,
		ClientContact:    b.ClientContact,
		ClientEmail:      b.ClientEmail,
		ClientPhone:      b.ClientPhone,
		Location:         b.Location,
		ContactName:      b.ContactName,
		ServiceTypes:     b.ServiceTypes,
		ServiceTypeOther: b.ServiceTypeOther,
		EngineerName:     b.EngineerName,
		EngineerID:       b.EngineerID,
		TicketID:         b.TicketID,
		Title:            b.Title,
		Activities:       b.Activities,
		Findings:         b.Findings,
		Hours:            b.Hours,
		Cost:             b.Cost,
		CostNotApplicable: b.CostNA,
		CostToBeQuoted:    b.CostTBQ,
		Reschedule:        b.Reschedule,
		RescheduleTime:    b.RescheduleTime,
		RescheduleReason:  b.RescheduleReason,
		SignatureRef:      b.SignatureRef,
		InternalNotes:     b.InternalNotes,
	}
	if b.ServiceDate != "" {
		t, err := time.Parse("2006-01-02", b.ServiceDate)
		if err != nil {
			return SaveOrderInput{}, fmt.Errorf("serviceDate must be YYYY-MM-DD")
		}
		o.ServiceDate = &t
	}
	if b.RescheduleDate != "" {
		t, err := time.Parse("2006-01-02", b.RescheduleDate)
		if err != nil {
			return SaveOrderInput{}, fmt.Errorf("rescheduleDate must be YYYY-MM-DD")
		}
		o.RescheduleDate = &t
	}
	in.Order = o

	if b.Equipment != nil {
		in.Equipment = make([]store.EquipmentItem, len(b.Equipment))
		for i, item := range b.Equipment {
			in.Equipment[i] = store.EquipmentItem{Brand: item.Brand, Model: item.Model, Serial: item.Serial, Description: item.Description}
		}
	}
	if b.Materials != nil {
		in.Materials = make([]store.MaterialItem, len(b.Materials))
		for i, item := range b.Materials {
			in.Materials[i] = store.MaterialItem{Quantity: item.Quantity, Description: item.Description, Comments: item.Comments}
		}
	}
	if b.Custody != nil {
		in.Custody = make([]store.CustodyItem, len(b.Custody))
		for i, item := range b.Custody {
			in.Custody[i] = store.CustodyItem{Quantity: item.Quantity, Description: item.Description, Comments: item.Comments}
		}
	}
	return in, nil
}

func (s *HTTPServer) handleSaveOrder(w http.ResponseWriter, r *http.Request, id string, finalize bool) {
	var body saveOrderBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	in, err := body.toInput(id, finalize)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	detail, err := s.service.SaveOrder(r.Context(), in, actorFrom(r))
	if err != nil {
		s.writeServiceError(w, err, "Could not save order")
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, detailPayload(detail))
}

func (s *HTTPServer) handleDeleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.DeleteOrder(r.Context(), id, actorFrom(r)); err != nil {
		s.writeServiceError(w, err, "Could not delete order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleUploadEvidence(w http.ResponseWriter, r *http.Request, id string) {
	file, caption, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	item, err := s.service.UploadEvidence(r.Context(), id, file.name, caption, file.data, actorFrom(r))
	if err != nil {
		s.writeServiceError(w, err, "Could not store evidence")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        item.ID,
		"fileRef":   item.FileRef,
		"caption":   item.Caption,
		"createdAt": item.CreatedAt,
	})
}

func (s *HTTPServer) handleUploadSignature(w http.ResponseWriter, r *http.Request, identityID string) {
	file, _, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	ref, err := s.service.UploadSignature(r.Context(), identityID, file.data)
	if err != nil {
		s.writeServiceError(w, err, "Could not store signature")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signatureRef": ref})
}

type upload struct {
	name string
	data []byte
}

func readUpload(r *http.Request) (upload, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return upload{}, "", fmt.Errorf("invalid multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, "", fmt.Errorf("file field is required")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return upload{}, "", fmt.Errorf("could not read upload")
	}
	return upload{name: header.Filename, data: data}, r.FormValue("caption"), nil
}

func (s *HTTPServer) handleRender(w http.ResponseWriter, r *http.Request, id, format string) {
	switch format {
	case "pdf":
		res, err := s.service.RenderPrint(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err, "Could not render report")
			return
		}
		serveFile(w, res.Data, res.Filename, res.MimeType)
	case "docx":
		res, err := s.service.RenderPackage(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err, "Could not render report")
			return
		}
		serveFile(w, res.Data, res.Filename, res.MimeType)
	}
}

func serveFile(w http.ResponseWriter, data []byte, filename, mimeType string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleEmailReport(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		To []string `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.EmailReport(r.Context(), id, body.To); err != nil {
		s.writeServiceError(w, err, "Could not email report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := search.Query{
		Text:   q.Get("q"),
		Status: q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		query.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		query.Offset = offset
	}
	writeJSON(w, http.StatusOK, s.service.Search(query))
}

// writeServiceError maps service errors to the wire: DomainErrors carry their
// own status and code, anything else is a 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var de *DomainError
	if errors.As(err, &de) {
		writeError(w, de.Status, de.Code, de.Message, de.Details)
		return
	}
	log.Printf("app: %s: %v", fallback, err)
	writeError(w, http.StatusInternalServerError, "SERVER_ERROR", fallback, nil)
}

// --- payload shaping ---

func orderPayload(o store.ServiceOrder) map[string]any {
	return map[string]any{
		"id":                o.ID,
		"folio":             o.Folio,
		"status":            o.Status,
		"clientName":        o.ClientName,
		"clientContact":     o.ClientContact,
		"clientEmail":       o.ClientEmail,
		"clientPhone":       o.ClientPhone,
		"location":          o.Location,
		"serviceDate":       dateString(o.ServiceDate),
		"contactName":       o.ContactName,
		"serviceTypes":      o.ServiceTypes,
		"serviceTypeOther":  o.ServiceTypeOther,
		"engineerName":      o.EngineerName,
		"engineerId":        o.EngineerID,
		"ticketId":          o.TicketID,
		"title":             o.Title,
		"activities":        o.Activities,
		"findings":          o.Findings,
		"hours":             o.Hours,
		"cost":              o.Cost,
		"costNotApplicable": o.CostNotApplicable,
		"costToBeQuoted":    o.CostToBeQuoted,
		"reschedule":        o.Reschedule,
		"rescheduleDate":    dateString(o.RescheduleDate),
		"rescheduleTime":    o.RescheduleTime,
		"rescheduleReason":  o.RescheduleReason,
		"signatureRef":      o.SignatureRef,
		"internalNotes":     o.InternalNotes,
		"emailSent":         o.EmailSent,
		"createdAt":         o.CreatedAt,
		"updatedAt":         o.UpdatedAt,
	}
}

func detailPayload(detail OrderDetail) map[string]any {
	payload := orderPayload(detail.Order)

	equipment := make([]map[string]any, 0, len(detail.Equipment))
	for _, item := range detail.Equipment {
		equipment = append(equipment, map[string]any{
			"id": item.ID, "brand": item.Brand, "model": item.Model,
			"serial": item.Serial, "description": item.Description,
		})
	}
	payload["equipment"] = equipment

	materials := make([]map[string]any, 0, len(detail.Materials))
	for _, item := range detail.Materials {
		materials = append(materials, map[string]any{
			"id": item.ID, "quantity": item.Quantity,
			"description": item.Description, "comments": item.Comments,
		})
	}
	payload["materials"] = materials

	custody := make([]map[string]any, 0, len(detail.Custody))
	for _, item := range detail.Custody {
		custody = append(custody, map[string]any{
			"id": item.ID, "quantity": item.Quantity,
			"description": item.Description, "comments": item.Comments,
		})
	}
	payload["custody"] = custody

	evidence := make([]map[string]any, 0, len(detail.Evidence))
	for _, item := range detail.Evidence {
		evidence = append(evidence, map[string]any{
			"id": item.ID, "fileRef": item.FileRef,
			"caption": item.Caption, "createdAt": item.CreatedAt,
		})
	}
	payload["evidence"] = evidence

	return payload
}

func identityPayload(identity store.Identity) map[string]any {
	return map[string]any{
		"id":             identity.ID,
		"fullName":       identity.FullName,
		"username":       identity.Username,
		"isEngineer":     identity.IsEngineer,
		"isSalesContact": identity.IsSalesContact,
		"isAdmin":        identity.IsAdmin,
		"hasSignature":   identity.SignatureRef != "",
	}
}

func dateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// --- middleware & helpers ---

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Actor-Name, X-Actor-Elevated")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
