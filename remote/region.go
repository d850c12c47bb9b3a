//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// Region represents the region of a LanceDB Cloud database.
type Region string

// DefaultRegion is the region used when none is configured.
const DefaultRegion Region = "us-east-1"

// uriScheme is the scheme of a database URI.
const uriScheme = "db"

// Endpoint returns the service endpoint of the specified database in the region.
//
// Endpoint format: https://{database}.{region}.api.lancedb.com
func (region Region) Endpoint(database string) string {
	if region == "" {
		region = DefaultRegion
	}
	return fmt.Sprintf("https://%s.%s.api.lancedb.com", database, string(region))
}

// parseDatabaseURI returns the database name of a URI of the form
// db://<name>.
func parseDatabaseURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", remoteerr.NewConfigErrorWithCause(err, "invalid database URI %q", uri)
	}
	if u.Scheme != uriScheme {
		return "", remoteerr.NewConfigError("invalid database URI %q, the scheme must be %q", uri, uriScheme+"://")
	}

	name := u.Host
	if name == "" || strings.Trim(u.Path, "/") != "" {
		return "", remoteerr.NewConfigError("invalid database URI %q, expect db://<name>", uri)
	}
	return name, nil
}

// endpoint returns the service endpoint for the specified database.
func (c *Config) endpoint(database string) (string, error) {
	if c.HostOverride == "" {
		return Region(c.Region).Endpoint(database), nil
	}

	u, err := url.Parse(c.HostOverride)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", remoteerr.NewConfigError("invalid HostOverride %q, expect http[s]://host[:port]", c.HostOverride)
	}
	return strings.TrimSuffix(c.HostOverride, "/"), nil
}
