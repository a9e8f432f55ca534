// Package transfercmder provides the export and import commands, which move
// a project's tree in and out of arbor as a JSON document.
package transfercmder
