package ir

import (
	"net/url"
	"strings"
)

// Address identifies a JSON value: a document URI without fragment plus an
// optional JSON Pointer fragment.
//
// The zero Address is the base pointer: the document supplied directly by the
// caller rather than fetched. An empty Fragment means "no fragment".
type Address struct {
	Document string
	Fragment string
}

// Base is the sentinel address of the caller-supplied document.
var Base = Address{}

// IsBase reports whether a refers to the caller-supplied document itself.
func (a Address) IsBase() bool {
	return a == Base
}

// WholeDocument reports whether the fragment selects the entire document.
//
// "/" is treated as the whole document for compatibility with existing schema
// sets, even though RFC 6901 reads it as the empty-named root property. Only
// this exact value is special.
func (a Address) WholeDocument() bool {
	return a.Fragment == "" || a.Fragment == "/"
}

// Normalized returns a with a "/" fragment dropped, so both spellings of the
// whole document compare equal.
func (a Address) Normalized() Address {
	if a.Fragment == "/" {
		return Address{Document: a.Document}
	}
	return a
}

// IsPointer reports whether the fragment is a JSON Pointer (as opposed to a
// plain-name fragment such as "#foo").
func (a Address) IsPointer() bool {
	return strings.HasPrefix(a.Fragment, "/")
}

// DocumentAddress returns the address of the whole enclosing document.
func (a Address) DocumentAddress() Address {
	return Address{Document: a.Document}
}

// Child returns the address of the member named key beneath a.
// The key is JSON-Pointer escaped. Children of "/" are children of the root.
func (a Address) Child(key string) Address {
	a = a.Normalized()
	return Address{Document: a.Document, Fragment: a.Fragment + "/" + EscapePointerToken(key)}
}

// WithFragment returns a copy of a with the fragment replaced.
func (a Address) WithFragment(fragment string) Address {
	return Address{Document: a.Document, Fragment: fragment}
}

// String renders the address as a URI reference. The fragment is
// percent-encoded where needed.
func (a Address) String() string {
	if a.Fragment == "" {
		return a.Document
	}
	u := url.URL{Fragment: a.Fragment}
	return a.Document + "#" + u.EscapedFragment()
}

// ParseAddress splits a URI reference into its document and fragment parts.
// Percent-encoded fragments are decoded.
func ParseAddress(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, NewURIError(raw, err)
	}
	return addressFromURL(u), nil
}

// MustParseAddress is like ParseAddress but panics on error. Intended for tests
// and static addresses.
func MustParseAddress(raw string) Address {
	a, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func addressFromURL(u *url.URL) Address {
	frag := u.Fragment
	doc := *u
	doc.Fragment = ""
	doc.RawFragment = ""
	return Address{Document: doc.String(), Fragment: frag}
}
