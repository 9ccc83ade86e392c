// Package view holds the templ components pushed over the live event stream.
package view
