//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

// Package sdkutil provides version information and path constants shared by
// the remote client packages.
package sdkutil

import (
	"fmt"
	"net/url"
)

const (
	// Major, minor and patch versions for the SDK.
	major = 0
	minor = 21
	patch = 2

	// ClientName is the product token used in the "User-Agent" header.
	ClientName = "LanceDB-Go-Client"

	// TableServiceURI is the path prefix of the table service.
	TableServiceURI = "/v1/table/"

	// ArrowStreamContentType is the media type of an Arrow IPC stream body.
	ArrowStreamContentType = "application/vnd.apache.arrow.stream"
)

var sdkVersion, userAgent string

// Sets sdkVersion and userAgent in package init function
func init() {
	sdkVersion = fmt.Sprintf("%d.%d.%d", major, minor, patch)
	// A sample User-Agent header: LanceDB-Go-Client/0.21.2
	userAgent = ClientName + "/" + sdkVersion
}

// SDKVersion returns the SDK version.
func SDKVersion() string {
	return sdkVersion
}

// UserAgent returns the string set in the "User-Agent" header of every
// request sent by the client.
func UserAgent() string {
	return userAgent
}

// TablePath returns the path of the specified action on a table, for example
// "/v1/table/my_table/query/".
func TablePath(table, action string) string {
	return TableServiceURI + url.PathEscape(table) + "/" + action + "/"
}
