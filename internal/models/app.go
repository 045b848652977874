package models

import "github.com/cellscribe/cellscribe/internal/notebook"

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Messages     []Message       // Transcript entries to display
	StreamText   string          // Prose of the in-flight assistant response
	Cells        []notebook.Cell // Current notebook view, decoration included
	PendingCount int             // Operations awaiting accept/reject
	Input        string          // User input field
	Status       string          // Status bar text
	Loading      bool            // Loading state from core
	LoadingDots  int             // Animation counter for loading dots
	Width        int             // Terminal width
	Height       int             // Terminal height
	ServiceReady bool            // Whether the turn service can stream
}
