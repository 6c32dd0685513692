package audiotag

import "github.com/simonhull/audiotag/internal/types"

// Tags is the metadata and stream properties read from a file.
type Tags = types.Tags

// Separator joins the values of a multi-valued string field.
const Separator = types.Separator
