package prismic

import (
	"strconv"
	"strings"
	"time"
)

// Predicate is a single query condition in the Prismic predicate syntax,
// e.g. [at(document.type, "post")].
type Predicate string

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + ", " + strconv.Quote(value) + ")]")
}

// DateAfter matches documents whose date field at path is strictly after t.
func DateAfter(path string, t time.Time) Predicate {
	return Predicate("[date.after(" + path + ", " + strconv.FormatInt(t.UnixMilli(), 10) + ")]")
}

// DateBefore matches documents whose date field at path is strictly before t.
func DateBefore(path string, t time.Time) Predicate {
	return Predicate("[date.before(" + path + ", " + strconv.FormatInt(t.UnixMilli(), 10) + ")]")
}

// joinPredicates wraps predicates into the q parameter understood by the search endpoint.
func joinPredicates(preds []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range preds {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}

// Common document paths.
const (
	PathType                 = "document.type"
	PathID                   = "document.id"
	PathFirstPublicationDate = "document.first_publication_date"
)

// UIDPath returns the path of the UID field for a custom type.
func UIDPath(docType string) string {
	return "my." + docType + ".uid"
}

// Ordering sorts search results by a document path.
type Ordering struct {
	Path string
	Desc bool
}

func (o Ordering) String() string {
	if o.Desc {
		return o.Path + " desc"
	}
	return o.Path
}

func joinOrderings(os []Ordering) string {
	parts := make([]string, len(os))
	for i, o := range os {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}
