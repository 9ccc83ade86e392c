package model

type Permission string

const (
	PermissionNotRequested Permission = "not_requested"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)
