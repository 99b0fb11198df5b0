package report

// DefaultSubjectTemplate is rendered with the group Title.
const DefaultSubjectTemplate = "[CRM DATA MINING INFO] - DISTRIBUSI DATA {{ .Title }}"

// bodyTemplate must stay free of clocks and random values so that a group
// always renders to the same bytes.
const bodyTemplate = `<html>
<body>
    <p>Yth. Rekan-Rekan {{ .Organization }} - <b>{{ .Title }}</b>,</p>
    <p>{{ .Intro }}</p>
    <table border="1" cellpadding="5" cellspacing="0" style="border-collapse: collapse; width: 100%; font-family: Arial, sans-serif; text-align: center;">
        <thead>
            <tr style="background-color: #A8D08D; font-weight: bold;">
                <th>Office Code</th>
                <th>Nama Cabang</th>
                <th>Leads NMC</th>
                <th>Leads Amitra</th>
                <th>Grand Total</th>
            </tr>
        </thead>
        <tbody>
{{- range .Rows }}
            <tr>
                <td>{{ .OfficeCode | trim }}</td>
                <td>{{ .BranchName | trim }}</td>
                <td>{{ .LeadsPrimary }}</td>
                <td>{{ .LeadsSecondary }}</td>
                <td><b>{{ .GrandTotal }}</b></td>
            </tr>
{{- end }}
        </tbody>
    </table>
</body>
</html>
`
