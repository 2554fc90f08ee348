package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"formbuilder/internal/export"
	"formbuilder/internal/formschema"
	"formbuilder/internal/store"
)

type Handler struct {
	forms      *formschema.Store
	sink       store.Sink
	evaluator  *formschema.Evaluator
	skipHidden bool
}

// NewHandler wires the form store and submission sink. With skipHidden set,
// fields hidden by a visibility rule are not validated on submit.
func NewHandler(forms *formschema.Store, sink store.Sink, skipHidden bool) *Handler {
	return &Handler{
		forms:      forms,
		sink:       sink,
		evaluator:  formschema.NewEvaluator(),
		skipHidden: skipHidden,
	}
}

// GetForm handles GET /api/getForm
func (h *Handler) GetForm(c *fiber.Ctx) error {
	return c.JSON(h.forms.Form())
}

// AddField handles POST /api/addfield
func (h *Handler) AddField(c *fiber.Ctx) error {
	var req FieldRequest
	if err := parseBody(c, &req); err != nil {
		return handleError(c, err)
	}

	form, err := h.forms.AddField(c.UserContext(), req.Definition())
	if err != nil {
		return handleError(c, err)
	}
	return respondForm(c, form)
}

// EditField handles POST /api/editfield
func (h *Handler) EditField(c *fiber.Ctx) error {
	var req EditFieldRequest
	if err := parseBody(c, &req); err != nil {
		return handleError(c, err)
	}

	form, err := h.forms.EditField(c.UserContext(), req.EditField, req.Definition())
	if err != nil {
		return handleError(c, err)
	}
	return respondForm(c, form)
}

// RemoveField handles POST /api/removeField
func (h *Handler) RemoveField(c *fiber.Ctx) error {
	var req RemoveFieldRequest
	if err := parseBody(c, &req); err != nil {
		return handleError(c, err)
	}

	form, err := h.forms.RemoveField(c.UserContext(), req.RemoveField)
	if err != nil {
		return handleError(c, err)
	}
	return respondForm(c, form)
}

// Submit handles POST /api/submit
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := parseBody(c, &req); err != nil {
		return handleError(c, err)
	}

	form := h.forms.Form()
	opts := formschema.ValidateOptions{}
	if h.skipHidden {
		visible, err := h.evaluator.VisibleFields(form.UISchema, req.Data)
		if err != nil {
			return fmt.Errorf("evaluate visibility: %w", err)
		}
		opts.Skip = hiddenFields(visible)
	}

	if err := formschema.ValidateSubmission(&form.Schema, req.Data, opts); err != nil {
		return handleError(c, err)
	}

	if err := h.sink.Save(c.UserContext(), store.NewSubmission(req.Data, form)); err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Data saved successfully"})
}

// LatestSubmission handles GET /api/submission
func (h *Handler) LatestSubmission(c *fiber.Ctx) error {
	sub, err := h.sink.Latest(c.UserContext())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NoSubmissionError())
		}
		return fmt.Errorf("load submission: %w", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"submission": fiber.Map{
			"data":     sub.Data,
			"schema":   sub.Schema,
			"uischema": sub.UISchema,
			"savedAt":  sub.SavedAt,
		},
	})
}

// Visibility handles POST /api/visibility
func (h *Handler) Visibility(c *fiber.Ctx) error {
	var req VisibilityRequest
	if err := parseBody(c, &req); err != nil {
		return handleError(c, err)
	}

	visible, err := h.evaluator.VisibleFields(h.forms.Form().UISchema, req.Data)
	if err != nil {
		return fmt.Errorf("evaluate visibility: %w", err)
	}
	return c.JSON(fiber.Map{"visible": visible})
}

// OpenAPI handles GET /api/openapi.json
func (h *Handler) OpenAPI(c *fiber.Ctx) error {
	doc, err := export.OpenAPI(c.UserContext(), h.forms.Form().Schema)
	if err != nil {
		return fmt.Errorf("build openapi document: %w", err)
	}
	return c.JSON(doc)
}

func respondForm(c *fiber.Ctx, form formschema.Form) error {
	return c.JSON(fiber.Map{
		"success":         true,
		"updatedSchema":   form.Schema,
		"updatedUischema": form.UISchema,
	})
}

func hiddenFields(visible map[string]bool) map[string]bool {
	hidden := make(map[string]bool)
	for name, ok := range visible {
		if !ok {
			hidden[name] = true
		}
	}
	return hidden
}
