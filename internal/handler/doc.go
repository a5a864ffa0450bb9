// Package handler implements the HTTP transport of the inspector.
//
// InspectorHandler exposes the bridge actions under /api/actions/{action}
// and read-only views of the journal: transitions, the latest report and the
// neighbour table. Unknown actions answer 404 with {error, details}; a failed
// action answers 500 with the bridge error document {error, stacktrace}.
//
// onConnectionStateChange is a keep-callback action, so over HTTP it becomes
// a Server-Sent Events stream that lives as long as the request.
//
// Snapshots can be exported as JSON, YAML or an Ansible inventory through
// /api/export?format=, and neighbours can be imported from the same formats.
//
// Middleware provides panic recovery, CORS and request logging.
package handler
