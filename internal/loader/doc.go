// Package loader reads service configuration files into a
// container.Builder.
//
// YAML, JSON and CUE files share one document layout:
//
//	imports:
//	  - resource: common.yaml
//	    ignore_errors: true
//	parameters:
//	  mailer.from: noreply@%domain%
//	scopes:
//	  - name: request
//	services:
//	  mailer:
//	    class: Mailer
//	    arguments: ["@transport", "@?logger", "@request="]
//	    calls:
//	      - [setLogger, ["@logger"]]
//	  mail: "@mailer"
//	mail:            # configuration for the "mail" extension
//	  from: me@example.com
//
// In service values "@id" is a reference, "@?id" ignores a missing
// service, a trailing "=" makes the reference non-strict and "@@" escapes
// a literal "@". Imports resolve relative to the importing file. Dotenv
// files set one env.<name> parameter per variable.
package loader
