// Package graphql is a ports.ScenarioAPI client for the scenario GraphQL API.
package graphql
