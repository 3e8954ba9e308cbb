// Copyright 2020, Square, Inc.

package builder

import (
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"py":     pyRepr,
	"str":    pyString,
	"var":    varName,
	"join":   strings.Join,
	"kwargs": kwargs,
}

var primaryPreamble = template.Must(template.New("primary-preamble").Funcs(funcs).Parse(
	`# Generated by taskgraph {{.Version}}. Do not edit.
from airflow import DAG
from airflow.utils.task_group import TaskGroup

dag = DAG(
    dag_id={{str .Name}},
{{- range kwargs .Config}}
    {{.Key}}={{py .Value}},
{{- end}}
)
`))

var primaryEpilogue = template.Must(template.New("primary-epilogue").Funcs(funcs).Parse(
	`# end of {{.Name}}
`))

var generatorPreamble = template.Must(template.New("generator-preamble").Funcs(funcs).Parse(
	`# generator {{.Name}}: dag {{.Target}}, referred by {{.Referrer}}
with TaskGroup(
    group_id={{str .GroupId}},
{{- range kwargs .Config}}
    {{.Key}}={{py .Value}},
{{- end}}
    dag=dag,
) as {{.Var}}:
`))

var generatorEpilogue = template.Must(template.New("generator-epilogue").Funcs(funcs).Parse(
	`# {{.Name}} upstream surface: {{join .Upstream ", "}}
# {{.Name}} downstream surface: {{join .Downstream ", "}}
`))

var nodeTemplate = template.Must(template.New("node").Funcs(funcs).Parse(
	`{{if .Upstream}}# upstream: {{join .Upstream ", "}}
{{end}}{{if .Downstream}}# downstream: {{join .Downstream ", "}}
{{end}}{{.Var}} = Operator(
    task_id={{str .Id}},
    operator_type={{str .Type}},
    kind={{str .Kind}},
{{- if .Resource}}
    resource={{str .Resource}},
{{- end}}
{{- range kwargs .Config}}
    {{.Key}}={{py .Value}},
{{- end}}
{{- range .Args}}
    # {{.Name}} provided by {{.From}}
{{- end}}
    dag=dag,
)
`))
