/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

Modified from the drbdadm argument builders to drive nmcli.
*/

package nmcli

var ShowArgs = func(name string, showSecrets bool) []string {
	if showSecrets {
		return []string{"--show-secrets", "con", "show", name}
	}
	return []string{"con", "show", name}
}

var AddArgs = func(connType, name string, properties []string) []string {
	return append([]string{"con", "add", "type", connType, "con-name", name}, properties...)
}

var ModifyArgs = func(name string, properties []string) []string {
	return append([]string{"con", "modify", name}, properties...)
}

var DeleteArgs = func(name string) []string {
	return []string{"con", "delete", name}
}
