package domain

// ToolRole describes what an external tool is used for.
type ToolRole string

const (
	ToolRolePrimary  ToolRole = "primary"
	ToolRoleFallback ToolRole = "fallback"
	ToolRoleRemux    ToolRole = "remux"
)

// ExternalTool describes one command-line collaborator and how to install it.
type ExternalTool struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Binary      string   `json:"binary"`
	Role        ToolRole `json:"role"`
	InstallHint string   `json:"installHint,omitempty"`
}

