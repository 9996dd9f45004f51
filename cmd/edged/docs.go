package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           edged API
// @version         1.0
// @description     HTTP API for the on-device half of split LLM inference.
//
// @contact.name   edged maintainers
// @contact.url    https://github.com/your-org/edged
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
