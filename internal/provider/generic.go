package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GenericAPI queries user-configured RapidAPI-style providers.
type GenericAPI struct {
	Client *Client
	Scheme string // defaults to https
}

// Query calls the provider's endpoint for kind and returns the decoded JSON.
func (g *GenericAPI) Query(ctx context.Context, d Descriptor, kind Kind, query, secret string) (any, error) {
	tmpl, ok := d.Endpoints[kind]
	if !ok {
		return nil, NewError(d.Name, InvalidInput, fmt.Errorf("no %s endpoint", kind))
	}

	scheme := g.Scheme
	if scheme == "" {
		scheme = "https"
	}
	endpoint := strings.ReplaceAll(tmpl, "{query}", url.QueryEscape(query))
	target := scheme + "://" + d.Host + "/" + endpoint

	var out any
	if err := g.Client.JSON(ctx, Call{Provider: d, URL: target, Credential: secret}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
