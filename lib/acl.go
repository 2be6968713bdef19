package awsivy

import (
	"strings"

	"github.com/aws/aws-sdk-go/service/s3"
)

// ACL is a canned access control list applied to uploaded objects.
type ACL string

const (
	ACLPrivate           ACL = s3.ObjectCannedACLPrivate
	ACLPublicRead        ACL = s3.ObjectCannedACLPublicRead
	ACLPublicReadWrite   ACL = s3.ObjectCannedACLPublicReadWrite
	ACLAuthenticatedRead ACL = s3.ObjectCannedACLAuthenticatedRead
)

// DefaultACL is used until SetACL is called.
const DefaultACL = ACLPublicRead

var aclNames = []string{"PRIVATE", "PUBLIC_READ", "PUBLIC_READ_WRITE", "AUTHENTICATED_READ"}

var aclByName = map[string]ACL{
	"PRIVATE":            ACLPrivate,
	"PUBLIC_READ":        ACLPublicRead,
	"PUBLIC_READ_WRITE":  ACLPublicReadWrite,
	"AUTHENTICATED_READ": ACLAuthenticatedRead,
}

// ParseACL maps a symbolic level such as PUBLIC_READ to its canned ACL.
func ParseACL(name string) (ACL, error) {
	acl, ok := aclByName[name]
	if !ok {
		return "", newErrorConfiguration("unknown acl " + name +
			", must be one of " + strings.Join(aclNames, ", "))
	}
	return acl, nil
}

func (a ACL) String() string { return string(a) }
