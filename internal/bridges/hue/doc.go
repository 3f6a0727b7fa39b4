// Package hue implements the provider client for Philips Hue bridges
// using the bridge's v1 HTTP+JSON API.
//
// Bridge URLs:
//
//	http://{address}/api                      pairing
//	http://{address}/api/{username}/lights    lights and plugs
//	http://{address}/api/{username}/scenes    scenes
//	http://{address}/api/{username}/groups/{id}/action
//
// A lights-map entry is a colour light when its state carries a
// "colormode" field, and a plug when config.archetype is "plug".
//
// Listing swallows failures and returns an empty list after logging
// them; single-device calls return errors from the device taxonomy.
package hue
