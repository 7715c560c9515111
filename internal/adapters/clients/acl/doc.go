// Package acl keeps the wire format of remote quote sources out of the
// domain. RemoteSource fetches a source's records over the instrumented
// client, translates them into domain quotes and maps every transport or
// HTTP failure to a domain network error.
//
// Remote records are read leniently:
//
//	text      from "text", else "title"
//	category  from "category", else the source's default category
//	timestamp from "timestamp" (Unix ms), else "updatedAt" (RFC 3339), else 0
//
// A zero timestamp never wins against a local record, so an undated remote
// copy cannot overwrite a local edit. Records without text are skipped.
package acl
