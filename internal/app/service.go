package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"fieldreport/api/internal/blob"
	"fieldreport/api/internal/email"
	"fieldreport/api/internal/export"
	"fieldreport/api/internal/folio"
	"fieldreport/api/internal/imaging"
	"fieldreport/api/internal/orders"
	"fieldreport/api/internal/report"
	"fieldreport/api/internal/search"
	"fieldreport/api/internal/store"
	"fieldreport/api/internal/util"
)

// Store is the persistence surface the service depends on, satisfied by
// store.PostgresStore and by test fakes.
type Store interface {
	Ping(ctx context.Context) error

	GetOrder(ctx context.Context, id string) (store.ServiceOrder, error)
	ListOrders(ctx context.Context, filter store.OrderFilter) ([]store.ServiceOrder, error)
	CreateOrder(ctx context.Context, o store.ServiceOrder) error
	UpdateOrder(ctx context.Context, o store.ServiceOrder) error
	DeleteOrder(ctx context.Context, id string) error
	SetEmailSent(ctx context.Context, id string) error
	LatestFolioWithPrefix(ctx context.Context, prefix string) (string, error)

	ReplaceEquipment(ctx context.Context, orderID string, items []store.EquipmentItem) error
	ReplaceMaterials(ctx context.Context, orderID string, items []store.MaterialItem) error
	ReplaceCustody(ctx context.Context, orderID string, items []store.CustodyItem) error
	ListEquipment(ctx context.Context, orderID string) ([]store.EquipmentItem, error)
	ListMaterials(ctx context.Context, orderID string) ([]store.MaterialItem, error)
	ListCustody(ctx context.Context, orderID string) ([]store.CustodyItem, error)
	InsertEvidence(ctx context.Context, item store.EvidenceItem) error
	ListEvidence(ctx context.Context, orderID string) ([]store.EvidenceItem, error)

	ListIdentities(ctx context.Context) ([]store.Identity, error)
	GetIdentity(ctx context.Context, id string) (store.Identity, error)
	SetSignature(ctx context.Context, identityID, signatureRef string) error
}

// Service implements the service-order operations behind the HTTP layer.
type Service struct {
	store   Store
	folios  *folio.Generator
	builder *report.Builder
	blobs   blob.Store
	email   *email.Service
	search  *search.Service
	orgName string

	now func() time.Time
}

func NewService(st Store, folios *folio.Generator, builder *report.Builder, blobs blob.Store, mail *email.Service, searcher *search.Service, orgName string) *Service {
	return &Service{
		store:   st,
		folios:  folios,
		builder: builder,
		blobs:   blobs,
		email:   mail,
		search:  searcher,
		orgName: orgName,
		now:     time.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// OrderDetail is an order with its child collections.
type OrderDetail struct {
	Order     store.ServiceOrder
	Equipment []store.EquipmentItem
	Materials []store.MaterialItem
	Custody   []store.CustodyItem
	Evidence  []store.EvidenceItem
}

// SaveOrderInput carries one save request. Nil child slices mean "leave that
// collection alone"; empty non-nil slices clear it.
type SaveOrderInput struct {
	Order     store.ServiceOrder
	Equipment []store.EquipmentItem
	Materials []store.MaterialItem
	Custody   []store.CustodyItem
	Finalize  bool
}

func (s *Service) GetOrder(ctx context.Context, id string) (OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderDetail{}, domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return OrderDetail{}, fmt.Errorf("get order: %w", err)
	}
	return s.loadDetail(ctx, order)
}

func (s *Service) loadDetail(ctx context.Context, order store.ServiceOrder) (OrderDetail, error) {
	detail := OrderDetail{Order: order}
	var err error
	if detail.Equipment, err = s.store.ListEquipment(ctx, order.ID); err != nil {
		return OrderDetail{}, fmt.Errorf("list equipment: %w", err)
	}
	if detail.Materials, err = s.store.ListMaterials(ctx, order.ID); err != nil {
		return OrderDetail{}, fmt.Errorf("list materials: %w", err)
	}
	if detail.Custody, err = s.store.ListCustody(ctx, order.ID); err != nil {
		return OrderDetail{}, fmt.Errorf("list custody: %w", err)
	}
	if detail.Evidence, err = s.store.ListEvidence(ctx, order.ID); err != nil {
		return OrderDetail{}, fmt.Errorf("list evidence: %w", err)
	}
	return detail, nil
}

func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter) ([]store.ServiceOrder, error) {
	return s.store.ListOrders(ctx, filter)
}

// SaveOrder creates or updates an order. A draft save only demands the client
// name; the first save assigns the folio, and it never changes afterwards.
// Finalization validates the full field set and flips the status.
// Re-finalizing is idempotent: folio and created_at are preserved.
func (s *Service) SaveOrder(ctx context.Context, in SaveOrderInput, actor orders.Actor) (OrderDetail, error) {
	o := in.Order
	creating := o.ID == ""
	now := s.now().UTC()

	if creating {
		o.ID = util.NewID("ord")
		o.Folio = ""
		o.Status = store.StatusDraft
		o.CreatedAt = now
		o.UpdatedAt = now
	} else {
		existing, err := s.store.GetOrder(ctx, o.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return OrderDetail{}, domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
			}
			return OrderDetail{}, fmt.Errorf("load order: %w", err)
		}
		if err := orders.CheckEdit(existing, actor); err != nil {
			return OrderDetail{}, domainError(http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		}
		// Folio, status, and creation time survive every edit.
		o.Folio = existing.Folio
		o.Status = existing.Status
		o.CreatedAt = existing.CreatedAt
		o.UpdatedAt = now
	}

	if in.Finalize {
		if err := orders.ValidateFinal(o); err != nil {
			return OrderDetail{}, validationError(err)
		}
		o.Status = store.StatusFinalized
	} else {
		if err := orders.ValidateDraft(o); err != nil {
			return OrderDetail{}, validationError(err)
		}
	}

	if err := s.persistOrder(ctx, &o, creating); err != nil {
		return OrderDetail{}, err
	}

	if err := s.saveChildren(ctx, o.ID, in); err != nil {
		return OrderDetail{}, err
	}

	s.indexOrder(o)
	return s.GetOrder(ctx, o.ID)
}

// persistOrder writes the order, running the folio assignment loop whenever
// the order does not yet carry a folio.
func (s *Service) persistOrder(ctx context.Context, o *store.ServiceOrder, creating bool) error {
	write := s.store.UpdateOrder
	if creating {
		write = s.store.CreateOrder
	}

	if o.Folio == "" {
		assigned, err := s.folios.Assign(ctx, s.now(), o.EngineerName, func(candidate string) (bool, error) {
			o.Folio = candidate
			err := write(ctx, *o)
			if errors.Is(err, store.ErrFolioTaken) {
				return true, nil
			}
			return false, err
		})
		if errors.Is(err, folio.ErrConflict) {
			return domainError(http.StatusConflict, "CONFLICT", "Could not assign a unique folio, please retry", nil)
		}
		if err != nil {
			return fmt.Errorf("assign folio: %w", err)
		}
		o.Folio = assigned
		return nil
	}

	if err := write(ctx, *o); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *Service) saveChildren(ctx context.Context, orderID string, in SaveOrderInput) error {
	if in.Equipment != nil {
		for i := range in.Equipment {
			if in.Equipment[i].ID == "" {
				in.Equipment[i].ID = util.NewID("eqp")
			}
		}
		if err := s.store.ReplaceEquipment(ctx, orderID, in.Equipment); err != nil {
			return fmt.Errorf("save equipment: %w", err)
		}
	}
	if in.Materials != nil {
		for i := range in.Materials {
			if in.Materials[i].ID == "" {
				in.Materials[i].ID = util.NewID("mat")
			}
		}
		if err := s.store.ReplaceMaterials(ctx, orderID, in.Materials); err != nil {
			return fmt.Errorf("save materials: %w", err)
		}
	}
	if in.Custody != nil {
		for i := range in.Custody {
			if in.Custody[i].ID == "" {
				in.Custody[i].ID = util.NewID("cst")
			}
		}
		if err := s.store.ReplaceCustody(ctx, orderID, in.Custody); err != nil {
			return fmt.Errorf("save custody: %w", err)
		}
	}
	return nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string, actor orders.Actor) error {
	existing, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return fmt.Errorf("load order: %w", err)
	}
	if err := orders.CheckEdit(existing, actor); err != nil {
		return domainError(http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return fmt.Errorf("delete order: %w", err)
	}
	if s.search != nil {
		s.search.DeleteOrder(id)
	}
	return nil
}

// UploadEvidence compresses an uploaded file, stores it, and attaches it to
// the order. Evidence on finalized orders follows the same edit rules as the
// order body.
func (s *Service) UploadEvidence(ctx context.Context, orderID, filename, caption string, data []byte, actor orders.Actor) (store.EvidenceItem, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.EvidenceItem{}, domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return store.EvidenceItem{}, fmt.Errorf("load order: %w", err)
	}
	if err := orders.CheckEdit(order, actor); err != nil {
		return store.EvidenceItem{}, domainError(http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	}

	normalized, contentType, err := imaging.Normalize(data)
	if err != nil {
		return store.EvidenceItem{}, fmt.Errorf("normalize upload: %w", err)
	}

	id := util.NewID("evd")
	ref := "evidence/" + orderID + "/" + id + uploadExt(contentType, filename)
	if err := s.blobs.Put(ctx, ref, normalized, contentType); err != nil {
		return store.EvidenceItem{}, fmt.Errorf("store upload: %w", err)
	}

	item := store.EvidenceItem{
		ID:        id,
		OrderID:   orderID,
		FileRef:   ref,
		Caption:   caption,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertEvidence(ctx, item); err != nil {
		return store.EvidenceItem{}, fmt.Errorf("record evidence: %w", err)
	}
	return item, nil
}

func uploadExt(contentType, filename string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if ext := path.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	return ".bin"
}

// UploadSignature stores a registered identity's signature image.
func (s *Service) UploadSignature(ctx context.Context, identityID string, data []byte) (string, error) {
	if _, err := s.store.GetIdentity(ctx, identityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domainError(http.StatusNotFound, "NOT_FOUND", "Identity not found", nil)
		}
		return "", fmt.Errorf("load identity: %w", err)
	}

	normalized, contentType, err := imaging.Normalize(data)
	if err != nil {
		return "", fmt.Errorf("normalize signature: %w", err)
	}
	ref := "signatures/" + identityID + uploadExt(contentType, "")
	if err := s.blobs.Put(ctx, ref, normalized, contentType); err != nil {
		return "", fmt.Errorf("store signature: %w", err)
	}
	if err := s.store.SetSignature(ctx, identityID, ref); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Service) ListIdentities(ctx context.Context) ([]store.Identity, error) {
	return s.store.ListIdentities(ctx)
}

func (s *Service) buildModel(ctx context.Context, id string) (report.Model, error) {
	detail, err := s.GetOrder(ctx, id)
	if err != nil {
		return report.Model{}, err
	}
	model, err := s.builder.BuildModel(ctx, detail.Order, report.Related{
		Equipment: detail.Equipment,
		Materials: detail.Materials,
		Custody:   detail.Custody,
		Evidence:  detail.Evidence,
	})
	if err != nil {
		return report.Model{}, renderError(err)
	}
	return model, nil
}

// RenderPrint produces the PDF deliverable for one order.
func (s *Service) RenderPrint(ctx context.Context, id string) (*export.Result, error) {
	model, err := s.buildModel(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := export.RenderPrint(ctx, model)
	if err != nil {
		return nil, renderError(err)
	}
	return result, nil
}

// RenderPackage produces the editable office-package deliverable.
func (s *Service) RenderPackage(ctx context.Context, id string) (*export.Result, error) {
	model, err := s.buildModel(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := export.RenderPackage(model)
	if err != nil {
		return nil, renderError(err)
	}
	return result, nil
}

// EmailReport renders the deliverables and mails them to the client. Only
// finalized orders can be mailed.
func (s *Service) EmailReport(ctx context.Context, id string, to []string) error {
	detail, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	order := detail.Order
	if order.Status != store.StatusFinalized {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Only finalized orders can be emailed", nil)
	}
	if len(to) == 0 {
		if strings.TrimSpace(order.ClientEmail) == "" {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Order has no client email", map[string]any{"missing": []string{orders.FieldClientEmail}})
		}
		to = []string{order.ClientEmail}
	}
	if s.email == nil || !s.email.IsConfigured() {
		return domainError(http.StatusConflict, "CONFLICT", "Email is not configured", nil)
	}

	model, err := s.buildModel(ctx, id)
	if err != nil {
		return err
	}

	var attachments []email.Attachment
	pkg, err := export.RenderPackage(model)
	if err != nil {
		return renderError(err)
	}
	attachments = append(attachments, email.Attachment{Filename: pkg.Filename, MimeType: pkg.MimeType, Data: pkg.Data})

	// PDF needs a headless browser; attach it when the host has one.
	if pdf, err := export.RenderPrint(ctx, model); err == nil {
		attachments = append(attachments, email.Attachment{Filename: pdf.Filename, MimeType: pdf.MimeType, Data: pdf.Data})
	} else if !errors.Is(err, export.ErrPrintDependencyMissing) {
		return renderError(err)
	}

	data := email.ReportData{
		OrgName:    s.orgName,
		Folio:      order.Folio,
		ClientName: order.ClientName,
		Engineer:   order.EngineerName,
	}
	if err := s.email.SendFinalizedReport(to, data, attachments); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	if err := s.store.SetEmailSent(ctx, id); err != nil {
		log.Printf("app: mark email sent for %s: %v", id, err)
	}
	return nil
}

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

func (s *Service) indexOrder(o store.ServiceOrder) {
	if s.search == nil {
		return
	}
	s.search.IndexOrder(search.OrderRecord{
		ID:       o.ID,
		Folio:    o.Folio,
		Title:    o.Title,
		Client:   o.ClientName,
		Engineer: o.EngineerName,
		Status:   o.Status,
		Location: o.Location,
	})
}

func validationError(err error) error {
	var v *orders.ValidationError
	if errors.As(err, &v) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", v.Error(), map[string]any{"missing": v.Missing})
	}
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
}

func renderError(err error) error {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return domainError(http.StatusInternalServerError, "RENDER_ERROR", err.Error(), nil)
}
