package tools

// ToolView is a tool as listed to clients.
type ToolView struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Active      bool     `json:"active"`
	Order       int      `json:"order"`
	IsInstalled bool     `json:"isInstalled,omitempty"`
}

type ManageResponse struct {
	Tools              []ToolView          `json:"tools"`
	DefaultPermissions map[string][]string `json:"defaultPermissions"`
}

// ManageRequest is the admin update body. Each submitted tool replaces the stored entry.
type ManageRequest struct {
	Tools              map[string]*ToolConfig `json:"tools,omitempty"`
	DefaultPermissions map[string][]string    `json:"defaultPermissions,omitempty"`
}

type ManageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
