package httpapi

import (
	"net/http"
	"strings"

	"github.com/fernandezvara/collabkit"
)

// Request bodies per family. Pointer fields are optional in a PATCH.

type documentInput struct {
	Title      *string              `json:"title"`
	Content    *string              `json:"content"`
	Visibility collabkit.Visibility `json:"visibility,omitempty"`
}

type whiteboardInput struct {
	Name       *string                   `json:"name"`
	Elements   []collabkit.CanvasElement `json:"elements,omitempty"`
	Visibility collabkit.Visibility      `json:"visibility,omitempty"`
}

type projectInput struct {
	WorkspaceID string         `json:"workspaceId,omitempty"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

type workspaceInput struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

type canvasInput struct {
	Elements []collabkit.CanvasElement `json:"elements"`
}

type visibilityInput struct {
	Visibility collabkit.Visibility `json:"visibility"`
}

type memberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type roleInput struct {
	Role string `json:"role"`
}

func required(field string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", badRequest(field + " is required")
	}
	return strings.TrimSpace(*v), nil
}

func optionalVisibility(v collabkit.Visibility) (collabkit.Visibility, error) {
	if v == "" {
		return collabkit.VisibilityPrivate, nil
	}
	if !v.Valid() {
		return "", badRequest("unknown visibility " + string(v))
	}
	return v, nil
}

// patch describes how a PATCH body changes an entity and which capabilities
// that needs.
type patch[PT any] struct {
	capabilities []collabkit.Capability
	apply        func(PT) error
}

func decodeDocument(r *http.Request) (*collabkit.Document, error) {
	var in documentInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	visibility, err := optionalVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	doc := &collabkit.Document{Title: title, Visibility: visibility}
	if in.Content != nil {
		doc.Content = *in.Content
	}
	return doc, nil
}

func decodeDocumentPatch(r *http.Request) (patch[*collabkit.Document], error) {
	var in documentInput
	if err := decodeJSON(r, &in); err != nil {
		return patch[*collabkit.Document]{}, err
	}
	if in.Visibility != "" {
		return patch[*collabkit.Document]{}, badRequest("visibility is changed with PUT /visibility")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return patch[*collabkit.Document]{}, badRequest("title cannot be empty")
	}
	return patch[*collabkit.Document]{
		capabilities: []collabkit.Capability{collabkit.CanEdit},
		apply: func(d *collabkit.Document) error {
			if in.Title != nil {
				d.Title = strings.TrimSpace(*in.Title)
			}
			if in.Content != nil {
				d.Content = *in.Content
			}
			return nil
		},
	}, nil
}

func decodeWhiteboard(r *http.Request) (*collabkit.Whiteboard, error) {
	var in whiteboardInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	visibility, err := optionalVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	if in.Elements != nil {
		return nil, badRequest("elements are saved with PUT /canvas")
	}
	return &collabkit.Whiteboard{Name: name, Visibility: visibility, Elements: []collabkit.CanvasElement{}}, nil
}

func decodeWhiteboardPatch(r *http.Request) (patch[*collabkit.Whiteboard], error) {
	var in whiteboardInput
	if err := decodeJSON(r, &in); err != nil {
		return patch[*collabkit.Whiteboard]{}, err
	}
	if in.Visibility != "" {
		return patch[*collabkit.Whiteboard]{}, badRequest("visibility is changed with PUT /visibility")
	}
	if in.Elements != nil {
		return patch[*collabkit.Whiteboard]{}, badRequest("elements are saved with PUT /canvas")
	}
	name, err := required("name", in.Name)
	if err != nil {
		return patch[*collabkit.Whiteboard]{}, err
	}
	return patch[*collabkit.Whiteboard]{
		capabilities: []collabkit.Capability{collabkit.CanEdit},
		apply: func(w *collabkit.Whiteboard) error {
			w.Name = name
			return nil
		},
	}, nil
}

func decodeProject(r *http.Request) (*collabkit.Project, error) {
	var in projectInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	p := &collabkit.Project{
		WorkspaceID: in.WorkspaceID,
		Name:        name,
		Settings:    in.Settings,
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	return p, nil
}

func decodeProjectPatch(r *http.Request) (patch[*collabkit.Project], error) {
	var in projectInput
	if err := decodeJSON(r, &in); err != nil {
		return patch[*collabkit.Project]{}, err
	}
	if in.WorkspaceID != "" {
		return patch[*collabkit.Project]{}, badRequest("a project cannot move to another workspace")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return patch[*collabkit.Project]{}, badRequest("name cannot be empty")
	}
	return patch[*collabkit.Project]{
		capabilities: patchCapabilities(in.Name != nil || in.Description != nil, in.Settings),
		apply: func(p *collabkit.Project) error {
			if in.Name != nil {
				p.Name = strings.TrimSpace(*in.Name)
			}
			if in.Description != nil {
				p.Description = *in.Description
			}
			if in.Settings != nil {
				p.Settings = in.Settings
			}
			return nil
		},
	}, nil
}

func decodeWorkspace(r *http.Request) (*collabkit.Workspace, error) {
	var in workspaceInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	ws := &collabkit.Workspace{Name: name, Settings: in.Settings}
	if in.Description != nil {
		ws.Description = *in.Description
	}
	return ws, nil
}

func decodeWorkspacePatch(r *http.Request) (patch[*collabkit.Workspace], error) {
	var in workspaceInput
	if err := decodeJSON(r, &in); err != nil {
		return patch[*collabkit.Workspace]{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return patch[*collabkit.Workspace]{}, badRequest("name cannot be empty")
	}
	return patch[*collabkit.Workspace]{
		capabilities: patchCapabilities(in.Name != nil || in.Description != nil, in.Settings),
		apply: func(ws *collabkit.Workspace) error {
			if in.Name != nil {
				ws.Name = strings.TrimSpace(*in.Name)
			}
			if in.Description != nil {
				ws.Description = *in.Description
			}
			if in.Settings != nil {
				ws.Settings = in.Settings
			}
			return nil
		},
	}, nil
}

// patchCapabilities: content fields need canEdit, settings need
// canChangeSettings, a body touching both needs both.
func patchCapabilities(content bool, settings map[string]any) []collabkit.Capability {
	if settings == nil {
		return []collabkit.Capability{collabkit.CanEdit}
	}
	if content {
		return []collabkit.Capability{collabkit.CanEdit, collabkit.CanChangeSettings}
	}
	return []collabkit.Capability{collabkit.CanChangeSettings}
}
