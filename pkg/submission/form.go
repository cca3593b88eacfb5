package submission

import (
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/pkg/upload"
)

// FormOverhead is the body allowance for the non-file fields and multipart
// framing on top of the image size limit.
const FormOverhead = 1 << 20

// maxMemory is the part of a multipart body kept in memory; the rest spills
// to temporary files.
const maxMemory = 8 << 20

const baseTypeField = "base_type"

// Form is a parsed, validated submission.
type Form struct {
	Link     string
	TH       int
	BaseType []string
	Author   Author
	Image    *multipart.FileHeader

	multipart *multipart.Form
}

// Author is the optional submitter identity. Empty fields get defaults when
// the record is stored.
type Author struct {
	Name string
	Tag  string
}

// RemoveAll deletes the temporary files of the parsed multipart form.
func (f *Form) RemoveAll() {
	if f != nil && f.multipart != nil {
		_ = f.multipart.RemoveAll()
	}
}

// ParseForm reads a multipart submission of at most maxBody bytes.
//
// Errors are *errors.AppError values (E201, E202, E203, E204) or
// upload.ErrTooLarge when the body exceeds maxBody.
func ParseForm(r *http.Request, maxBody int64) (*Form, error) {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBody)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return nil, upload.ErrTooLarge
		case stderrors.Is(err, http.ErrNotMultipart):
			// Without a multipart body there can be no image.
			return nil, errors.New("E201")
		default:
			return nil, errors.New("E204").Wrap(err)
		}
	}

	mf := r.MultipartForm
	form := &Form{multipart: mf}

	form.Link = first(mf.Value, "link")
	th := strings.TrimSpace(first(mf.Value, "th"))
	if files := mf.File["image"]; len(files) > 0 {
		form.Image = files[0]
	}

	if form.Link == "" || th == "" || form.Image == nil {
		form.RemoveAll()
		return nil, errors.New("E201")
	}

	n, err := strconv.Atoi(th)
	if err != nil {
		form.RemoveAll()
		return nil, errors.New("E202").WithDetail("got " + strconv.Quote(th))
	}
	form.TH = n

	form.BaseType, err = ParseBaseType(mf.Value)
	if err != nil {
		form.RemoveAll()
		return nil, err
	}

	form.Author = Author{
		Name: firstOf(mf.Value, "author[name]", "author.name"),
		Tag:  firstOf(mf.Value, "author[tag]", "author.tag"),
	}
	return form, nil
}

// ParseBaseType normalizes the base_type tags to a list.
//
// Accepted shapes, in output order:
//
//	base_type=a               scalar, possibly repeated
//	base_type[]=a             list
//	base_type[0]=a            indexed list, ordered by index
//
// Values are kept as submitted, blank ones included. An absent field yields
// an empty list. Any other bracketed key, such as base_type[foo], is an
// E203 error.
func ParseBaseType(values url.Values) ([]string, error) {
	out := []string{}
	out = append(out, values[baseTypeField]...)
	out = append(out, values[baseTypeField+"[]"]...)

	type indexed struct {
		index  int
		values []string
	}
	var list []indexed
	for key, vals := range values {
		if !strings.HasPrefix(key, baseTypeField) {
			continue
		}
		rest := key[len(baseTypeField):]
		if rest == "" || rest == "[]" {
			continue
		}
		if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
			// A different field such as base_types.
			continue
		}
		idx, err := strconv.Atoi(rest[1 : len(rest)-1])
		if err != nil || idx < 0 {
			return nil, errors.New("E203").WithDetail("unexpected key " + strconv.Quote(key))
		}
		list = append(list, indexed{idx, vals})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].index < list[j].index })
	for _, item := range list {
		out = append(out, item.values...)
	}
	return out, nil
}
