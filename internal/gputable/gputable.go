// Package gputable provides a static table of known GPU hardware vendor ids.
package gputable

// Vendor is the canonical name of a GPU hardware vendor.
type Vendor string

// VendorUnknown is the classification of every id outside the table.
const VendorUnknown Vendor = "Unknown"

// Static lookup table. PCI-SIG ids below 0x10000, Khronos software
// renderer ids above.
var vendorMap = map[uint64]Vendor{
	0x0000:  "Unknown",
	0x1002:  "AMD",
	0x1010:  "Img Tec",
	0x106B:  "Apple",
	0x10DE:  "Nvidia",
	0x13B5:  "ARM",
	0x1414:  "Microsoft",
	0x144D:  "Samsung",
	0x14E4:  "Broadcom",
	0x15AD:  "VMWare",
	0x1AE0:  "Google",
	0x1AF4:  "VirtIO",
	0x5143:  "Qualcomm",
	0x8086:  "Intel",
	0x10001: "Vivante",
	0x10002: "VeriSilicon",
	0x10003: "Kazan",
	0x10004: "CodePlay",
	0x10005: "Mesa",
	0x10006: "PoCL",
}

// Classify returns the vendor name for a raw hardware vendor id. Ids not in
// the table classify as VendorUnknown, never an error.
func Classify(id uint64) Vendor {
	if name, found := vendorMap[id]; found {
		return name
	}
	return VendorUnknown
}
