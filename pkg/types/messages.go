package types

// Server -> Client
//
// Every push is a fragment replace: the client swaps the element whose
// id matches the fragment's root. Type tells the client which surface
// changed.
//   "arena"   -> #arena-root, recipient-specific full render
//   "emotes"  -> #emotes-overlay, shared
//   "listing" -> #index-div, shared
type ServerMessage struct {
	Type     string `json:"type"`
	Fragment string `json:"fragment"`
}
