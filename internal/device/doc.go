// Package device defines the provider-independent light and plug model
// returned to clients, the composite device identifier, and the error
// taxonomy shared by providers, the aggregation service and the API.
//
// A composite id has the form:
//
//	{provider}-{bridgeId}-{vendorDeviceId}
//
// for example "hue-1-7". Vendor device ids are assumed not to contain the
// separator; ids that do will fail to parse.
package device
